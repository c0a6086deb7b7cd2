package social

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestRedisAnnouncerEnqueue(t *testing.T) {
	srv := miniredis.RunT(t)

	announcer := NewRedisAnnouncer(RedisOptions{Addr: srv.Addr(), QueueKey: "social-post"}, testLogger())
	defer announcer.Close()

	scheduled := time.Now().UTC().Add(20 * time.Minute).Truncate(time.Second)
	task := Task{
		DealRecordID: "deal-1",
		Platform:     "twitter",
		Content:      "🔥 Widget dropped to $400.00 (60% off)! Was $1000.00. #TechDeals",
		Hashtags:     []string{"TechDeals", "Widgets"},
		ScheduledAt:  scheduled,
	}

	if err := announcer.Announce(context.Background(), task); err != nil {
		t.Fatalf("announce failed: %v", err)
	}

	payload, err := srv.Lpop("social-post")
	if err != nil {
		t.Fatalf("queue should hold one task: %v", err)
	}

	var stored Task
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		t.Fatalf("payload should be JSON: %v", err)
	}
	if stored.DealRecordID != "deal-1" {
		t.Fatalf("unexpected deal record id: %q", stored.DealRecordID)
	}
	if stored.Status != StatusQueued {
		t.Fatalf("empty status should default to queued, got %q", stored.Status)
	}
	if !stored.ScheduledAt.Equal(scheduled) {
		t.Fatalf("scheduled time mangled: %v vs %v", stored.ScheduledAt, scheduled)
	}
	if len(stored.Hashtags) != 2 {
		t.Fatalf("hashtags lost: %v", stored.Hashtags)
	}
}

func TestRedisAnnouncerKeepsExplicitStatus(t *testing.T) {
	srv := miniredis.RunT(t)

	announcer := NewRedisAnnouncer(RedisOptions{Addr: srv.Addr()}, testLogger())
	defer announcer.Close()

	task := Task{DealRecordID: "deal-2", Status: "failed"}
	if err := announcer.Announce(context.Background(), task); err != nil {
		t.Fatalf("announce failed: %v", err)
	}

	payload, err := srv.Lpop("social-post")
	if err != nil {
		t.Fatalf("default queue key should be social-post: %v", err)
	}
	var stored Task
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		t.Fatalf("payload should be JSON: %v", err)
	}
	if stored.Status != "failed" {
		t.Fatalf("explicit status should survive, got %q", stored.Status)
	}
}

func TestRedisAnnouncerConnectionError(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	announcer := NewRedisAnnouncer(RedisOptions{Addr: addr}, testLogger())
	defer announcer.Close()

	if err := announcer.Announce(context.Background(), Task{DealRecordID: "deal-3"}); err == nil {
		t.Fatal("announce against a dead queue should fail")
	}
}

func TestLogAnnouncer(t *testing.T) {
	announcer := NewLogAnnouncer(testLogger())
	if err := announcer.Announce(context.Background(), Task{DealRecordID: "deal-4"}); err != nil {
		t.Fatalf("dry-run announcer should never fail: %v", err)
	}
}
