package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestOpenWeather_URLEncodesCityAndKey(t *testing.T) {
	o := NewOpenWeather(http.DefaultClient, "", "k3y", nil)

	got := o.URL("São Paulo")
	want := DefaultBaseURL + "?appid=k3y&q=S%C3%A3o+Paulo"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestOpenWeather_FetchRelaysBodyVerbatim(t *testing.T) {
	const body = `{"name":"Paris","main":{"temp":285.3},  "cod":200}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Paris" {
			t.Errorf("expected q=Paris, got %q", got)
		}
		if got := r.URL.Query().Get("appid"); got != "k3y" {
			t.Errorf("expected appid=k3y, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	o := NewOpenWeather(srv.Client(), srv.URL, "k3y", nil)
	got, err := o.Fetch(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != body {
		t.Fatalf("expected body verbatim, got %q", got)
	}
}

func TestOpenWeather_NonSuccessStatusIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"cod":"404","message":"city not found"}`)
	}))
	defer srv.Close()

	o := NewOpenWeather(srv.Client(), srv.URL, "k3y", nil)
	_, err := o.Fetch(context.Background(), "Atlantis")

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusNotFound || se.Message != "city not found" {
		t.Fatalf("unexpected status error: %+v", se)
	}
}

func TestOpenWeather_InvalidJSONIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>oops</html>")
	}))
	defer srv.Close()

	o := NewOpenWeather(srv.Client(), srv.URL, "k3y", nil)
	if _, err := o.Fetch(context.Background(), "Paris"); !errors.Is(err, ErrInvalidBody) {
		t.Fatalf("expected ErrInvalidBody, got %v", err)
	}
}

func TestOpenWeather_OversizedBodyIsNotReportedAsInvalidJSON(t *testing.T) {
	big := `{"pad":"` + strings.Repeat("x", maxBodySize) + `"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, big)
	}))
	defer srv.Close()

	o := NewOpenWeather(srv.Client(), srv.URL, "k3y", nil)
	_, err := o.Fetch(context.Background(), "Paris")
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
}

func TestOpenWeather_BodyAtLimitIsAccepted(t *testing.T) {
	pad := maxBodySize - len(`{"pad":""}`)
	body := `{"pad":"` + strings.Repeat("x", pad) + `"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	o := NewOpenWeather(srv.Client(), srv.URL, "k3y", nil)
	got, err := o.Fetch(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != maxBodySize {
		t.Fatalf("expected %d bytes, got %d", maxBodySize, len(got))
	}
}

func TestOpenWeather_NetworkErrorDoesNotLeakKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	o := NewOpenWeather(&http.Client{Timeout: time.Second}, base, "sup3r-s3cret", nil)
	_, err := o.Fetch(context.Background(), "Paris")
	if err == nil {
		t.Fatalf("expected error for closed server")
	}
	if strings.Contains(err.Error(), "sup3r-s3cret") {
		t.Fatalf("error leaks the api key: %v", err)
	}
}

func TestOpenWeather_TimeoutIsFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := srv.Client()
	client.Timeout = 30 * time.Millisecond
	o := NewOpenWeather(client, srv.URL, "k3y", nil)

	if _, err := o.Fetch(context.Background(), "Paris"); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestOpenWeather_BusyWhenNoSlot(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	slots := NewSlots(1, 10*time.Millisecond)
	hold, ok := slots.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected to acquire the only slot")
	}
	defer hold()

	o := NewOpenWeather(srv.Client(), srv.URL, "k3y", slots)
	if _, err := o.Fetch(context.Background(), "Paris"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no upstream call without a slot")
	}
}

func TestOpenWeather_NoClient(t *testing.T) {
	o := &OpenWeather{}
	if _, err := o.Fetch(context.Background(), "Paris"); !errors.Is(err, ErrNoClient) {
		t.Fatalf("expected ErrNoClient, got %v", err)
	}
}
