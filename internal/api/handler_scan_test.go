package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"attendance-qr-backend/internal/attendance"
	"attendance-qr-backend/internal/model"
	"attendance-qr-backend/internal/replay"
	"attendance-qr-backend/internal/seed"
	"attendance-qr-backend/internal/store"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Seed{},
		&model.UsedToken{},
		&model.WorkRecord{},
		&model.ScanLog{},
	))

	s := store.NewGormStore(db)
	seeds := seed.NewManager(s, time.UTC)
	proc := attendance.NewProcessor(s, seeds, replay.NewDBGuard(s), nil, nil, 0)
	return NewRouter(NewHandler(s, seeds, proc), 1000, time.Second), db
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

func insertRecord(t *testing.T, db *gorm.DB, workerID, eventID, date string) {
	t.Helper()
	day, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.WorkRecord{
		WorkerID:           workerID,
		EventID:            eventID,
		Date:               date,
		Status:             model.StatusScheduled,
		ScheduledStartTime: day.Add(10 * time.Hour),
		ScheduledEndTime:   day.Add(17*time.Hour + 30*time.Minute),
	}).Error)
}

// generatePayload runs the generator endpoint and returns the QR content as
// the string a scanner app would submit.
func generatePayload(t *testing.T, router *gin.Engine, eventID, date, action string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/events/"+eventID+"/qr", gin.H{
		"date": date,
		"type": action,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Payload          json.RawMessage `json:"payload"`
		RotatesInSeconds float64         `json:"rotatesInSeconds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Greater(t, resp.RotatesInSeconds, 0.0)
	assert.LessOrEqual(t, resp.RotatesInSeconds, 60.0)
	return string(resp.Payload)
}

func TestScanCheckInFlow(t *testing.T) {
	router, db := setupTestRouter(t)
	date := today()
	insertRecord(t, db, "W1", "E1", date)

	payload := generatePayload(t, router, "E1", date, "check-in")

	w := doJSON(t, router, http.MethodPost, "/api/scans/check-in", gin.H{
		"workerId": "W1",
		"payload":  payload,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		WorkRecordID uint64 `json:"workRecordId"`
		Action       string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "check-in", resp.Action)

	var rec model.WorkRecord
	require.NoError(t, db.First(&rec, resp.WorkRecordID).Error)
	assert.Equal(t, model.StatusCheckedIn, rec.Status)

	// The same QR content again is a replay.
	w = doJSON(t, router, http.MethodPost, "/api/scans/check-in", gin.H{
		"workerId": "W1",
		"payload":  payload,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestScanCheckOutFlow(t *testing.T) {
	router, db := setupTestRouter(t)
	date := today()
	insertRecord(t, db, "W1", "E1", date)

	inPayload := generatePayload(t, router, "E1", date, "check-in")
	w := doJSON(t, router, http.MethodPost, "/api/scans/check-in", gin.H{
		"workerId": "W1", "payload": inPayload,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	outPayload := generatePayload(t, router, "E1", date, "check-out")
	w = doJSON(t, router, http.MethodPost, "/api/scans/check-out", gin.H{
		"workerId": "W1", "payload": outPayload,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AdjustedScheduledEndTime time.Time `json:"adjustedScheduledEndTime"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.AdjustedScheduledEndTime.IsZero())
	assert.Zero(t, resp.AdjustedScheduledEndTime.Minute()%30)
}

func TestScanCheckOutBeforeCheckIn(t *testing.T) {
	router, db := setupTestRouter(t)
	date := today()
	insertRecord(t, db, "W1", "E1", date)

	outPayload := generatePayload(t, router, "E1", date, "check-out")
	w := doJSON(t, router, http.MethodPost, "/api/scans/check-out", gin.H{
		"workerId": "W1", "payload": outPayload,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestScanUnknownWorker(t *testing.T) {
	router, _ := setupTestRouter(t)
	date := today()

	payload := generatePayload(t, router, "E1", date, "check-in")
	w := doJSON(t, router, http.MethodPost, "/api/scans/check-in", gin.H{
		"workerId": "ghost", "payload": payload,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScanWrongActionPayload(t *testing.T) {
	router, db := setupTestRouter(t)
	date := today()
	insertRecord(t, db, "W1", "E1", date)

	outPayload := generatePayload(t, router, "E1", date, "check-out")
	w := doJSON(t, router, http.MethodPost, "/api/scans/check-in", gin.H{
		"workerId": "W1", "payload": outPayload,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScanRejectsGarbagePayload(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/scans/check-in", gin.H{
		"workerId": "W1", "payload": "not json at all",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/scans/check-in", gin.H{
		"workerId": "W1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetWorkRecord(t *testing.T) {
	router, db := setupTestRouter(t)
	date := today()
	insertRecord(t, db, "W1", "E1", date)

	w := doJSON(t, router, http.MethodGet, "/api/workers/W1/events/E1/record?date="+date, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var rec model.WorkRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, model.StatusScheduled, rec.Status)

	w = doJSON(t, router, http.MethodGet, "/api/workers/W2/events/E1/record?date="+date, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/workers/W1/events/E1/record", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
