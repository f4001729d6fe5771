package identity

import (
	"testing"
	"time"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("test-secret")
	tok, err := v.Sign("rider-1", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	id, err := v.RiderID(tok)
	if err != nil {
		t.Fatal(err)
	}
	if id != "rider-1" {
		t.Fatalf("expected rider-1, got %s", id)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	tok, _ := NewVerifier("secret-a").Sign("rider-1", time.Hour)
	if _, err := NewVerifier("secret-b").RiderID(tok); err == nil {
		t.Fatal("expected verification failure")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	v := NewVerifier("test-secret")
	tok, _ := v.Sign("rider-1", -time.Minute)
	if _, err := v.RiderID(tok); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestEventsSubscribeUnsubscribe(t *testing.T) {
	e := NewEvents()
	var got []Event
	unsub := e.Subscribe(func(ev Event) { got = append(got, ev) })
	e.Publish(Event{RiderID: "rider-1", SignedIn: false})
	unsub()
	e.Publish(Event{RiderID: "rider-2", SignedIn: false})
	if len(got) != 1 || got[0].RiderID != "rider-1" {
		t.Fatalf("expected one delivered event, got %v", got)
	}
}
