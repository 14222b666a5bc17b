package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/catalog-harvester/internal/domain"
	"github.com/samvad-hq/catalog-harvester/pkg/httpclient"
)

const twoProducts = `{
  "data": [
    {"id":"1","sku":"SKU-1","name":"Runner","image":"https://img.example/1.png","price":80,"originalPrice":100,
     "discountAmount":20,"discountRate":0.2,"sold":1200,"rating":4.6,"createdAt":"2025-01-02T03:04:05Z"},
    {"id":"2","sku":"SKU-2","name":"Walker","image":"https://img.example/2.png","price":45.5,
     "discountAmount":0,"discountRate":0,"sold":3,"rating":3.9,"createdAt":"2025-02-01T00:00:00Z"}
  ],
  "pagination": {"page":1,"limit":10,"total":2,"totalPages":1}
}`

func wantTwoProducts() []domain.Product {
	return []domain.Product{
		{
			ID: "1", SKU: "SKU-1", Name: "Runner", Image: "https://img.example/1.png",
			Price: 80, OriginalPrice: Float(100), DiscountAmount: 20, DiscountRate: 0.2,
			Sold: 1200, Rating: 4.6, CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			ID: "2", SKU: "SKU-2", Name: "Walker", Image: "https://img.example/2.png",
			Price: 45.5, Sold: 3, Rating: 3.9, CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

// fakeResponse implements httpclient.Response.
type fakeResponse struct {
	body       []byte
	statusCode int
}

func (f fakeResponse) Body() []byte    { return f.body }
func (f fakeResponse) StatusCode() int { return f.statusCode }

// fakeHTTPClient records requested URLs and returns one canned response.
type fakeHTTPClient struct {
	mu      sync.Mutex
	resp    fakeResponse
	err     error
	calls   []string
	headers []map[string]string
}

func (f *fakeHTTPClient) Get(_ context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	f.headers = append(f.headers, headers)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func newFakeClient(t *testing.T, body string, status int) (*Client, *fakeHTTPClient) {
	t.Helper()
	fake := &fakeHTTPClient{resp: fakeResponse{body: []byte(body), statusCode: status}}
	c, err := New("http://localhost:5000", WithHTTPClient(fake))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, fake
}

func TestNewValidatesBaseURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "localhost:5000", "ftp://example.com", "http://"} {
		if _, err := New(raw); err == nil {
			t.Errorf("New(%q) expected error", raw)
		}
	}

	c, err := New(" http://example.com/api/?x=1 ")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.BaseURL() != "http://example.com/api" {
		t.Fatalf("BaseURL = %q", c.BaseURL())
	}
}

func TestListProductsRequestsPage(t *testing.T) {
	for _, page := range []int{1, 2, 17, 1000} {
		c, fake := newFakeClient(t, twoProducts, http.StatusOK)

		products, err := c.ListProducts(context.Background(), page)
		if err != nil {
			t.Fatalf("ListProducts(%d): %v", page, err)
		}
		if len(fake.calls) != 1 {
			t.Fatalf("expected exactly 1 request, got %d", len(fake.calls))
		}
		want := "http://localhost:5000/products?page=" + strconv.Itoa(page)
		if fake.calls[0] != want {
			t.Fatalf("url = %q want %q", fake.calls[0], want)
		}
		if !reflect.DeepEqual(products, wantTwoProducts()) {
			t.Fatalf("products = %#v", products)
		}
	}
}

func TestListProductsZeroPageMeansFirstPage(t *testing.T) {
	c, fake := newFakeClient(t, twoProducts, http.StatusOK)

	omitted, err := c.ListProducts(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListProducts(0): %v", err)
	}
	first, err := c.ListProducts(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListProducts(1): %v", err)
	}
	if fake.calls[0] != fake.calls[1] {
		t.Fatalf("page 0 requested %q, page 1 requested %q", fake.calls[0], fake.calls[1])
	}
	if !reflect.DeepEqual(omitted, first) {
		t.Fatalf("results differ")
	}
}

func TestListProductsPageKeepsPagination(t *testing.T) {
	c, _ := newFakeClient(t, twoProducts, http.StatusOK)

	resp, err := c.ListProductsPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListProductsPage: %v", err)
	}
	want := domain.Pagination{Page: 1, Limit: 10, Total: 2, TotalPages: 1}
	if resp.Pagination != want {
		t.Fatalf("pagination = %+v", resp.Pagination)
	}
	if resp.Pagination.HasNext() {
		t.Fatalf("single page result must not report a next page")
	}
}

func TestSearchProductsScenario(t *testing.T) {
	body := `{"data":[{"id":"1","name":"Trail shoes","price":12}],"pagination":{"page":1,"limit":10,"total":1,"totalPages":1}}`
	c, fake := newFakeClient(t, body, http.StatusOK)

	products, err := c.SearchProducts(context.Background(), SearchParams{Keyword: String("shoes"), MinPrice: Float(10)})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if got := fake.calls[0]; got != "http://localhost:5000/products/search?keyword=shoes&minPrice=10" {
		t.Fatalf("url = %q", got)
	}
	if len(products) != 1 || products[0].ID != "1" || products[0].Name != "Trail shoes" {
		t.Fatalf("products = %#v", products)
	}
}

func TestSearchProductsWithoutFilters(t *testing.T) {
	c, fake := newFakeClient(t, twoProducts, http.StatusOK)

	if _, err := c.SearchProducts(context.Background(), SearchParams{}); err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if got := fake.calls[0]; got != "http://localhost:5000/products/search" {
		t.Fatalf("url = %q", got)
	}
}

func TestSearchProductsIsIdempotent(t *testing.T) {
	c, fake := newFakeClient(t, twoProducts, http.StatusOK)
	params := SearchParams{Keyword: String("run"), MinRating: Float(4)}

	first, err := c.SearchProducts(context.Background(), params)
	if err != nil {
		t.Fatalf("first search: %v", err)
	}
	second, err := c.SearchProducts(context.Background(), params)
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated search returned different products")
	}
	if fake.calls[0] != fake.calls[1] {
		t.Fatalf("repeated search built different urls: %q vs %q", fake.calls[0], fake.calls[1])
	}
}

func TestRequestsSendAcceptAndCustomHeaders(t *testing.T) {
	fake := &fakeHTTPClient{resp: fakeResponse{body: []byte(twoProducts), statusCode: http.StatusOK}}
	c, err := New("http://localhost:5000", WithHTTPClient(fake), WithHeaders(map[string]string{"X-Tenant": "vn"}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.ListProducts(context.Background(), 1); err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	h := fake.headers[0]
	if h["Accept"] != "application/json" || h["X-Tenant"] != "vn" {
		t.Fatalf("headers = %#v", h)
	}
}

func TestNon2xxReturnsStatusError(t *testing.T) {
	c, _ := newFakeClient(t, `{"message":"boom"}`, http.StatusInternalServerError)

	_, err := c.SearchProducts(context.Background(), SearchParams{Keyword: String("x")})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %T %v", err, err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("StatusCode = %d", statusErr.StatusCode)
	}
	if !strings.Contains(statusErr.Error(), "boom") {
		t.Fatalf("error should carry body snippet: %v", statusErr)
	}
}

func TestTransportErrorPropagates(t *testing.T) {
	transportErr := errors.New("connection refused")
	fake := &fakeHTTPClient{err: transportErr}
	c, err := New("http://localhost:5000", WithHTTPClient(fake))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := c.ListProducts(context.Background(), 1); !errors.Is(err, transportErr) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestMalformedBodyIsAnError(t *testing.T) {
	c, _ := newFakeClient(t, `<html>not json</html>`, http.StatusOK)
	if _, err := c.ListProducts(context.Background(), 1); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestClientAgainstHTTPServer(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.RequestURI())
		mu.Unlock()
		if r.Method != http.MethodGet {
			t.Errorf("method = %s", r.Method)
		}
		switch r.URL.Path {
		case "/api/products", "/api/products/search":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(twoProducts))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/api/", WithHTTPClient(httpclient.NewRestyClient(2*time.Second)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	listed, err := c.ListProducts(context.Background(), 3)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	searched, err := c.SearchProducts(context.Background(), SearchParams{Keyword: String("red shoes"), Page: Int(2)})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if !reflect.DeepEqual(listed, wantTwoProducts()) || !reflect.DeepEqual(searched, wantTwoProducts()) {
		t.Fatalf("unexpected products from server")
	}

	mu.Lock()
	defer mu.Unlock()
	if seen[0] != "/api/products?page=3" {
		t.Fatalf("list request = %q", seen[0])
	}
	if seen[1] != "/api/products/search?keyword=red+shoes&page=2" {
		t.Fatalf("search request = %q", seen[1])
	}
}

func TestClientConcurrentCalls(t *testing.T) {
	c, fake := newFakeClient(t, twoProducts, http.StatusOK)

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			if _, err := c.ListProducts(context.Background(), page); err != nil {
				t.Errorf("ListProducts(%d): %v", page, err)
			}
		}(i)
	}
	wg.Wait()

	if len(fake.calls) != 8 {
		t.Fatalf("expected 8 independent requests, got %d", len(fake.calls))
	}
}
