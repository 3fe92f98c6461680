package handlers

import (
	"bytes"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"frutico/backend/internal/models"
	"frutico/backend/internal/ticketing"

	"github.com/PuerkitoBio/goquery"
)

func paidTestOrder() models.Order {
	order := pendingOrder()
	order.Status = models.OrderStatusPaid
	order.PaymentID = "pay_1"
	order.Amount = 2500
	order.QRTarget = ticketing.TicketURL(testBaseURL, order.ID)
	return order
}

func TestTicketPagePaid(t *testing.T) {
	order := paidTestOrder()
	router, _ := newTestRouter(t, newFakeStore(order), nil, nil, testConfig())

	rr := serve(router, httptest.NewRequest(http.MethodGet, "/ticket/"+order.ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	doc, err := goquery.NewDocumentFromReader(rr.Body)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	if got := strings.TrimSpace(doc.Find(".ticket-id").Text()); got != "6F1C2A9E" {
		t.Fatalf("unexpected ticket id %q", got)
	}
	if got := strings.TrimSpace(doc.Find(".ticket-date").Text()); got != "Sunday, 10 March 2024" {
		t.Fatalf("unexpected visit date %q", got)
	}
	if !doc.Find(".ticket-state").HasClass("ticket-state-" + ticketing.TicketStatePaid) {
		t.Fatalf("expected paid state marker")
	}
	want := testBaseURL + "/ticket/" + order.ID + "/qr.png"
	if src, _ := doc.Find("img.ticket-qr").Attr("src"); src != want {
		t.Fatalf("expected qr src %q, got %q", want, src)
	}
}

func TestTicketPagePendingHasNoQR(t *testing.T) {
	order := pendingOrder()
	router, _ := newTestRouter(t, newFakeStore(order), nil, nil, testConfig())

	rr := serve(router, httptest.NewRequest(http.MethodGet, "/ticket/"+order.ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	doc, err := goquery.NewDocumentFromReader(rr.Body)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	if doc.Find("img.ticket-qr").Length() != 0 {
		t.Fatalf("pending ticket must not show a qr code")
	}
}

func TestTicketPageUnknown(t *testing.T) {
	router, _ := newTestRouter(t, newFakeStore(), nil, nil, testConfig())
	rr := serve(router, httptest.NewRequest(http.MethodGet, "/ticket/does-not-exist", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestTicketPageStoreError(t *testing.T) {
	store := newFakeStore(pendingOrder())
	store.getErr = errStoreDown
	router, _ := newTestRouter(t, store, nil, nil, testConfig())
	rr := serve(router, httptest.NewRequest(http.MethodGet, "/ticket/"+pendingOrder().ID, nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestTicketQR(t *testing.T) {
	order := paidTestOrder()
	router, _ := newTestRouter(t, newFakeStore(order), nil, nil, testConfig())

	rr := serve(router, httptest.NewRequest(http.MethodGet, "/ticket/"+order.ID+"/qr.png", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}
	img, err := png.Decode(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != ticketing.DefaultQRSize || b.Dy() != ticketing.DefaultQRSize {
		t.Fatalf("unexpected qr size %dx%d", b.Dx(), b.Dy())
	}
}

func TestTicketQRPendingNotFound(t *testing.T) {
	order := pendingOrder()
	router, _ := newTestRouter(t, newFakeStore(order), nil, nil, testConfig())
	rr := serve(router, httptest.NewRequest(http.MethodGet, "/ticket/"+order.ID+"/qr.png", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestTicketPageRateLimited(t *testing.T) {
	order := paidTestOrder()
	router, _ := newTestRouter(t, newFakeStore(order), nil, nil, testConfig())

	var last *httptest.ResponseRecorder
	for i := 0; i < 61; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ticket/"+order.ID, nil)
		req.RemoteAddr = "203.0.113.9:5555"
		last = serve(router, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	req := httptest.NewRequest(http.MethodGet, "/ticket/"+order.ID, nil)
	req.RemoteAddr = "203.0.113.10:5555"
	if rr := serve(router, req); rr.Code != http.StatusOK {
		t.Fatalf("expected other client to pass, got %d", rr.Code)
	}
}
