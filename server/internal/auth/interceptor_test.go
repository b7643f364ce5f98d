package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// passHandler is a grpc.UnaryHandler that returns ("ok", nil).
func passHandler(ctx context.Context, req interface{}) (interface{}, error) {
	return "ok", nil
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(t *testing.T, h http.Handler, header, key string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/series", nil)
	if key != "" {
		req.Header.Set(header, key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestMiddleware_ModeNone_PassesThrough(t *testing.T) {
	h := Middleware("none", "x-api-key", "secret")(okHandler)
	if code := serve(t, h, "", ""); code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", code)
	}
}

func TestMiddleware_EmptyKey_PassesThrough(t *testing.T) {
	h := Middleware("apikey", "x-api-key", "")(okHandler)
	if code := serve(t, h, "", ""); code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", code)
	}
}

func TestMiddleware_CorrectKey(t *testing.T) {
	h := Middleware("apikey", "x-api-key", "supersecret")(okHandler)
	if code := serve(t, h, "X-Api-Key", "supersecret"); code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", code)
	}
}

func TestMiddleware_WrongOrMissingKey(t *testing.T) {
	h := Middleware("apikey", "x-api-key", "supersecret")(okHandler)
	if code := serve(t, h, "x-api-key", "nope"); code != http.StatusUnauthorized {
		t.Errorf("wrong key: got %d, want 401", code)
	}
	if code := serve(t, h, "", ""); code != http.StatusUnauthorized {
		t.Errorf("missing key: got %d, want 401", code)
	}
}

func TestMiddleware_QueryParamKey(t *testing.T) {
	h := Middleware("apikey", "x-api-key", "supersecret")(okHandler)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?key=supersecret", nil))
	if rr.Code != http.StatusNoContent {
		t.Errorf("query key: got %d, want 204", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?key=nope", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong query key: got %d, want 401", rr.Code)
	}
}

func callWithKey(t *testing.T, interceptor grpc.UnaryServerInterceptor, header, key string) (interface{}, error) {
	t.Helper()
	ctx := context.Background()
	if key != "" {
		ctx = metadata.NewIncomingContext(ctx, metadata.Pairs(header, key))
	}
	return interceptor(ctx, nil, &grpc.UnaryServerInfo{}, passHandler)
}

func TestUnaryInterceptor_ModeNone_PassesThrough(t *testing.T) {
	i := UnaryInterceptor("none", "x-api-key", "secret")
	res, err := i(context.Background(), nil, &grpc.UnaryServerInfo{}, passHandler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != "ok" {
		t.Errorf("result: got %v, want ok", res)
	}
}

func TestUnaryInterceptor_CorrectKey(t *testing.T) {
	i := UnaryInterceptor("apikey", "x-api-key", "supersecret")
	res, err := callWithKey(t, i, "x-api-key", "supersecret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != "ok" {
		t.Errorf("result: got %v, want ok", res)
	}
}

func TestUnaryInterceptor_WrongKey(t *testing.T) {
	i := UnaryInterceptor("apikey", "x-api-key", "supersecret")
	_, err := callWithKey(t, i, "x-api-key", "wrong")
	if code := status.Code(err); code != codes.Unauthenticated {
		t.Errorf("code: got %v, want Unauthenticated", code)
	}
}

func TestUnaryInterceptor_NoMetadata(t *testing.T) {
	i := UnaryInterceptor("apikey", "x-api-key", "supersecret")
	_, err := i(context.Background(), nil, &grpc.UnaryServerInfo{}, passHandler)
	if code := status.Code(err); code != codes.Unauthenticated {
		t.Errorf("code: got %v, want Unauthenticated", code)
	}
}
