package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/hirelane/hirelane-identity/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:settings_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.Setting{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func TestDefaultsWithEmptySnapshot(t *testing.T) {
	Store(time.Time{}, nil)
	if got := SiteName(); got != DefaultSiteName {
		t.Fatalf("expected default site name, got %q", got)
	}
	if got := RetentionDays(); got != DefaultRetentionDays {
		t.Fatalf("expected default retention, got %d", got)
	}
}

func TestPutRefreshesSnapshot(t *testing.T) {
	t.Cleanup(func() { Store(time.Time{}, nil) })
	conn := openTestDB(t)
	ctx := context.Background()

	if errPut := Put(ctx, conn, SiteNameKey, "Acme Hiring"); errPut != nil {
		t.Fatalf("put: %v", errPut)
	}
	if errPut := Put(ctx, conn, RetentionDaysKey, 0); errPut != nil {
		t.Fatalf("put: %v", errPut)
	}
	if got := SiteName(); got != "Acme Hiring" {
		t.Fatalf("expected stored site name, got %q", got)
	}
	if got := RetentionDays(); got != 0 {
		t.Fatalf("expected retention 0, got %d", got)
	}

	if errPut := Put(ctx, conn, SiteNameKey, "Acme"); errPut != nil {
		t.Fatalf("put update: %v", errPut)
	}
	if got := SiteName(); got != "Acme" {
		t.Fatalf("expected updated site name, got %q", got)
	}
	if UpdatedAt().IsZero() {
		t.Fatalf("expected snapshot timestamp")
	}
}

func TestRetentionDaysIgnoresNegative(t *testing.T) {
	t.Cleanup(func() { Store(time.Time{}, nil) })
	Store(time.Now(), map[string]json.RawMessage{RetentionDaysKey: json.RawMessage(`-3`)})
	if got := RetentionDays(); got != DefaultRetentionDays {
		t.Fatalf("expected default for negative value, got %d", got)
	}
}

func TestParseInt(t *testing.T) {
	cases := map[string]int{
		`7`:              7,
		`7.0`:            7,
		` "12" `:         12,
		`{"value": "3"}`: 3,
	}
	for raw, want := range cases {
		got, ok := ParseInt(json.RawMessage(raw))
		if !ok || got != want {
			t.Fatalf("ParseInt(%s) = %d, %v; want %d", raw, got, ok, want)
		}
	}
	for _, raw := range []string{``, `7.5`, `"x"`, `true`} {
		if _, ok := ParseInt(json.RawMessage(raw)); ok {
			t.Fatalf("expected ParseInt(%q) to fail", raw)
		}
	}
}

func TestPollPicksUpWritesFromOtherInstances(t *testing.T) {
	t.Cleanup(func() { Store(time.Time{}, nil) })
	conn := openTestDB(t)
	if errRefresh := Refresh(context.Background(), conn); errRefresh != nil {
		t.Fatalf("refresh: %v", errRefresh)
	}
	if got := RetentionDays(); got != DefaultRetentionDays {
		t.Fatalf("expected default retention, got %d", got)
	}

	row := models.Setting{Key: RetentionDaysKey, Value: json.RawMessage(`7`), UpdatedAt: time.Now().UTC()}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("write setting: %v", errCreate)
	}
	if got := RetentionDays(); got != DefaultRetentionDays {
		t.Fatalf("snapshot should not change before a refresh, got %d", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Poll(ctx, conn, 10*time.Millisecond)
		close(done)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for RetentionDays() != 7 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("poll did not pick up the new retention, got %d", RetentionDays())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("poll did not stop after cancel")
	}
}

func TestParseStrings(t *testing.T) {
	if got := ParseStrings(json.RawMessage(`["https://a.example.com", " ", "https://b.example.com"]`)); len(got) != 2 || got[1] != "https://b.example.com" {
		t.Fatalf("unexpected list %v", got)
	}
	if got := ParseStrings(json.RawMessage(`" https://a.example.com "`)); len(got) != 1 || got[0] != "https://a.example.com" {
		t.Fatalf("unexpected single %v", got)
	}
	if got := ParseStrings(json.RawMessage(`{"value": ["x"]}`)); len(got) != 1 || got[0] != "x" {
		t.Fatalf("unexpected wrapped %v", got)
	}
	if got := ParseStrings(json.RawMessage(`42`)); got != nil {
		t.Fatalf("expected nil for a number, got %v", got)
	}
	if got := ParseString(json.RawMessage(`{"value": " Acme "}`)); got != "Acme" {
		t.Fatalf("unexpected wrapped string %q", got)
	}
}
