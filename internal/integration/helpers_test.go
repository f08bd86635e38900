package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

var keysToIgnore = map[string]struct{}{
	"timestamp": {},
	"requestId": {},
	"createdAt": {},
	"updatedAt": {},
	"id":        {},
}

func prepareRequest(method, path string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func compareResponse(t testing.TB, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	cleanMap(actual)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		_, ok := keysToIgnore[k]
		return ok
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func cleanMap(m map[string]any) {
	for k := range m {
		if _, ok := keysToIgnore[k]; ok {
			delete(m, k)
			continue
		}
		switch v := m[k].(type) {
		case map[string]any:
			cleanMap(v)
		case []any:
			for _, item := range v {
				if nested, ok := item.(map[string]any); ok {
					cleanMap(nested)
				}
			}
		}
	}
}

func accessToken(t testing.TB, userID int) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestJWTSecret))
	require.NoError(t, err)

	return token
}

func executeSQLFile(t testing.TB, db *pgxpool.Pool, path string) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = db.Exec(context.Background(), string(content))
	require.NoError(t, err)
}

func resetState(t testing.TB, app *TestApp) {
	t.Helper()

	executeSQLFile(t, app.DB, "testdata/truncate.sql")
	executeSQLFile(t, app.DB, "testdata/catalog_up.sql")
	executeSQLFile(t, app.DB, "testdata/wallets_up.sql")

	require.NoError(t, app.Redis.FlushDB(context.Background()).Err())
	app.Mailer.Reset()
}

// do runs an authenticated request and decodes a JSON response into dst when dst is not nil.
func do(t testing.TB, app *TestApp, userID int, method, path, body string, dst any) int {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	headers := map[string]string{"Authorization": "Bearer " + accessToken(t, userID)}

	req, err := prepareRequest(method, path, reader, headers)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)

	if dst != nil {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
	}

	return rec.Code
}

type reservationResponse struct {
	Id            string  `json:"id"`
	Status        string  `json:"status"`
	FinalAmount   string  `json:"finalAmount"`
	PaymentId     *string `json:"paymentId"`
	PaymentMethod *string `json:"paymentMethod"`
}

func createReservation(t testing.TB, app *TestApp, userID int, body string) reservationResponse {
	t.Helper()

	var resp reservationResponse
	status := do(t, app, userID, http.MethodPost, "/reservations", body, &resp)
	require.Equal(t, http.StatusCreated, status)

	return resp
}

func reservationBody(tableTypeID int, partySize int, coupon string) string {
	body := map[string]any{
		"branchId":    1,
		"tableTypeId": tableTypeID,
		"name":        "Grace Hopper",
		"email":       "grace@example.com",
		"phone":       "+905551234567",
		"date":        TestReservationDate,
		"timeSlot":    TestTimeSlot,
		"partySize":   partySize,
	}
	if coupon != "" {
		body["couponCode"] = coupon
	}

	b, _ := json.Marshal(body)
	return string(b)
}

func waitForEmails(t testing.TB, app *TestApp, count int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return len(app.Mailer.GetSentEmails()) >= count
	}, 2*time.Second, 20*time.Millisecond)
}
