package store

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/aptomart/aptomart-api/internal/chain"
)

const testMarketplace = "0xcafe"

// fakeNode serves a minimal fullnode: view calls dispatched by function name
// and the marketplace resource read.
type fakeNode struct {
	t *testing.T
	// view answers a view call; return status 0 for 200.
	view func(fn string, args []string) (string, int)
	// resource is the JSON body served for any account resource read.
	resource string

	mu        sync.Mutex
	viewCalls map[string]int
}

func newFakeNode(t *testing.T, view func(fn string, args []string) (string, int)) *fakeNode {
	return &fakeNode{t: t, view: view, viewCalls: map[string]int{}}
}

func (f *fakeNode) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/view":
			var req struct {
				Function  string   `json:"function"`
				Arguments []string `json:"arguments"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				f.t.Errorf("decode view request: %v", err)
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			parts := strings.Split(req.Function, "::")
			fn := parts[len(parts)-1]
			f.mu.Lock()
			f.viewCalls[fn]++
			f.mu.Unlock()
			body, status := f.view(fn, req.Arguments)
			if status != 0 {
				http.Error(w, body, status)
				return
			}
			w.Write([]byte(body))
		case strings.Contains(r.URL.Path, "/resource/"):
			w.Write([]byte(f.resource))
		default:
			http.NotFound(w, r)
		}
	})
}

func (f *fakeNode) calls(fn string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewCalls[fn]
}

func (f *fakeNode) client(t *testing.T) *chain.Client {
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return chain.New(chain.Config{NodeURL: srv.URL, MarketplaceAddress: testMarketplace}, zap.NewNop())
}

func hexField(s string) string {
	return `"0x` + hex.EncodeToString([]byte(s)) + `"`
}

// detailsTuple renders a get_nft_details result tuple.
func detailsTuple(id, owner, name, desc, uri, price string, forSale bool, rarity int) string {
	b, _ := json.Marshal(forSale)
	r, _ := json.Marshal(rarity)
	return `["` + id + `","` + owner + `",` + hexField(name) + `,` + hexField(desc) + `,` +
		hexField(uri) + `,"` + price + `",` + string(b) + `,` + string(r) + `]`
}
