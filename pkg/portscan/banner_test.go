package portscan

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestNormalizeBannerCollapsesNewlinesAndTrims(t *testing.T) {
	got := normalizeBanner("  HTTP/1.0 200 OK\r\nServer: nginx/1.21.4\r\n\r\n  ")
	want := "HTTP/1.0 200 OK | Server: nginx/1.21.4"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNormalizeBannerTruncatesTo500Chars(t *testing.T) {
	long := strings.Repeat("a", 600)
	got := normalizeBanner(long)
	if len(got) != 500 {
		t.Fatalf("expected truncation to 500 chars, got %d", len(got))
	}
}

func TestReadBannerVolunteered(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("SSH-2.0-TestBanner\r\n"))
		time.Sleep(50 * time.Millisecond)
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", portString(port)), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	banner, gotData := readBanner(conn, port, 500*time.Millisecond)
	if !strings.Contains(banner, "SSH-2.0-TestBanner") {
		t.Fatalf("expected banner to contain SSH-2.0-TestBanner, got %q", banner)
	}
	if !gotData {
		t.Fatalf("expected gotData=true for a volunteered banner")
	}
}

func TestReadBannerNoResponse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(300 * time.Millisecond)
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", portString(port)), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	banner, gotData := readBanner(conn, 54321, 100*time.Millisecond)
	if banner != "[No response]" {
		t.Fatalf("expected [No response], got %q", banner)
	}
	if gotData {
		t.Fatalf("expected gotData=false when the port never replies")
	}
}
