package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

type bookingBody struct {
	RoomID   int64  `json:"room_id"`
	GuestID  int64  `json:"guest_id"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

type bookingReply struct {
	RoomID int64  `json:"room_id"`
	Nights string `json:"nights"`
	Status string `json:"status"`
}

// bookingEcho читает тело брони и отвечает подтверждением с теми же датами.
func bookingEcho(hits *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*hits++
		defer r.Body.Close()

		var in bookingBody
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "malformed JSON body", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(bookingReply{
			RoomID: in.RoomID,
			Nights: in.CheckIn + "/" + in.CheckOut,
			Status: "Reserved",
		})
	}
}

func gzipBytes(t *testing.T, b []byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return &buf
}

func TestGzipMiddleware(t *testing.T) {
	booking := `{"room_id":12,"guest_id":3,"check_in":"2027-04-02","check_out":"2027-04-05"}`

	type want struct {
		statusCode      int
		contentEncoding string
		reply           bookingReply
	}

	tests := []struct {
		name           string
		gzipRequest    bool
		acceptEncoding string
		want           want
	}{
		{
			name:           "compressed booking, compressed confirmation",
			gzipRequest:    true,
			acceptEncoding: "gzip, deflate",
			want: want{
				statusCode:      http.StatusCreated,
				contentEncoding: "gzip",
				reply:           bookingReply{RoomID: 12, Nights: "2027-04-02/2027-04-05", Status: "Reserved"},
			},
		},
		{
			name:        "compressed booking, plain confirmation",
			gzipRequest: true,
			want: want{
				statusCode: http.StatusCreated,
				reply:      bookingReply{RoomID: 12, Nights: "2027-04-02/2027-04-05", Status: "Reserved"},
			},
		},
		{
			name:           "plain booking, compressed confirmation",
			acceptEncoding: "gzip",
			want: want{
				statusCode:      http.StatusCreated,
				contentEncoding: "gzip",
				reply:           bookingReply{RoomID: 12, Nights: "2027-04-02/2027-04-05", Status: "Reserved"},
			},
		},
		{
			name: "plain booking, plain confirmation",
			want: want{
				statusCode: http.StatusCreated,
				reply:      bookingReply{RoomID: 12, Nights: "2027-04-02/2027-04-05", Status: "Reserved"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader = strings.NewReader(booking)
			if tt.gzipRequest {
				body = gzipBytes(t, []byte(booking))
			}

			req := httptest.NewRequest(http.MethodPost, "/api/reservations", body)
			req.Header.Set("Content-Type", "application/json")
			if tt.gzipRequest {
				req.Header.Set("Content-Encoding", "gzip")
			}
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}

			hits := 0
			w := httptest.NewRecorder()
			GzipMiddleware(bookingEcho(&hits)).ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.want.statusCode {
				t.Fatalf("status: got %d want %d", res.StatusCode, tt.want.statusCode)
			}
			if ce := res.Header.Get("Content-Encoding"); ce != tt.want.contentEncoding {
				t.Fatalf("content-encoding: got %q want %q", ce, tt.want.contentEncoding)
			}
			if tt.want.contentEncoding == "gzip" && res.Header.Get("Vary") != "Accept-Encoding" {
				t.Fatalf("vary: got %q want Accept-Encoding", res.Header.Get("Vary"))
			}

			var reader io.Reader = res.Body
			if tt.want.contentEncoding == "gzip" {
				zr, err := gzip.NewReader(res.Body)
				if err != nil {
					t.Fatalf("new gzip reader: %v", err)
				}
				defer zr.Close()
				reader = zr
			}

			var got bookingReply
			if err := json.NewDecoder(reader).Decode(&got); err != nil {
				t.Fatalf("decode confirmation: %v", err)
			}
			if got != tt.want.reply {
				t.Fatalf("confirmation: got %+v want %+v", got, tt.want.reply)
			}
		})
	}
}

func TestGzipMiddleware_CorruptBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/reservations", strings.NewReader(`{"room_id":12}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")

	hits := 0
	w := httptest.NewRecorder()
	GzipMiddleware(bookingEcho(&hits)).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d want %d", w.Code, http.StatusBadRequest)
	}
	if hits != 0 {
		t.Fatalf("booking handler must not run on a corrupt gzip body")
	}
}
