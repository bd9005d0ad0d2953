package mediaserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
)

// mockServer records requests and serves a small Jellyfin-like API.
type mockServer struct {
	mu       sync.Mutex
	requests []string
	uploads  map[string][]byte
	bodyAdds [][]string

	rejectQueryAdds bool
}

func (m *mockServer) record(r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
}

func setupMockServer(t *testing.T, m *mockServer) *httptest.Server {
	t.Helper()
	m.uploads = make(map[string][]byte)

	mux := http.NewServeMux()

	mux.HandleFunc("/System/Info", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ServerName":"media","Version":"10.10.3","Id":"abc"}`))
	})

	mux.HandleFunc("/Users/u1/Items", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		if r.Header.Get("X-Emby-Token") != "token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case q.Get("IncludeItemTypes") == "Movie":
			w.Write([]byte(`{"Items":[
				{"Id":"m1","Name":"The Matrix","ProviderIds":{"Tmdb":"603"}},
				{"Id":"m2","Name":"Blade Runner","ProviderIds":{"Tmdb":"78","Imdb":"tt0083658"}},
				{"Id":"m3","Name":"Home Video","ProviderIds":{}},
				{"Id":"m4","Name":"The Matrix (4K)","ProviderIds":{"tmdb":"603"}}
			],"TotalRecordCount":4}`))
		case q.Get("IncludeItemTypes") == "BoxSet":
			w.Write([]byte(`{"Items":[
				{"Id":"c1","Name":"Horror Movies ","Type":"BoxSet"},
				{"Id":"c2","Name":"Horror Movies of the 80s","Type":"BoxSet"}
			],"TotalRecordCount":2}`))
		case q.Get("ParentId") == "c1":
			w.Write([]byte(`{"Items":[{"Id":"m1","ProviderIds":{"Tmdb":"603"}}],"TotalRecordCount":1}`))
		default:
			w.Write([]byte(`{"Items":[],"TotalRecordCount":0}`))
		}
	})

	mux.HandleFunc("/Collections", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Write([]byte(`{"Id":"new1"}`))
	})

	mux.HandleFunc("/Collections/c1/Items", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		if r.Method == http.MethodPost && r.URL.Query().Get("Ids") == "" {
			var body struct {
				Ids []string
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			m.mu.Lock()
			m.bodyAdds = append(m.bodyAdds, body.Ids)
			m.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method == http.MethodPost && m.rejectQueryAdds {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/Items/c1/Images/", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		data, _ := io.ReadAll(r.Body)
		decoded, err := base64.StdEncoding.DecodeString(string(data))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		m.mu.Lock()
		m.uploads[r.URL.Path+"|"+r.Header.Get("Content-Type")] = decoded
		m.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	return httptest.NewServer(mux)
}

func newTestClient(t *testing.T, server *httptest.Server, opts ...Option) *Client {
	t.Helper()
	c, err := New("jellyfin", server.URL, "token", "u1", opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 6))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("plex", "http://x", "t", ""); err == nil {
		t.Error("expected error for unsupported kind")
	}
	if _, err := New("jellyfin", "", "t", ""); err == nil {
		t.Error("expected error for missing URL")
	}
	if _, err := New("jellyfin", "ftp://x", "t", ""); err == nil {
		t.Error("expected error for non-http URL")
	}
	if _, err := New("jellyfin", "http://x", "", ""); err == nil {
		t.Error("expected error for missing token")
	}
}

func TestNew_EmbyPrefix(t *testing.T) {
	c, err := New("Emby", "http://emby.local:8096/", "t", "")
	if err != nil {
		t.Fatal(err)
	}
	if c.Url != "http://emby.local:8096/emby" {
		t.Errorf("expected /emby prefix, got %s", c.Url)
	}
	if got := c.resolveURL(nil, "Collections"); got != "http://emby.local:8096/emby/Collections" {
		t.Errorf("unexpected URL %s", got)
	}
}

func TestSystemInfo(t *testing.T) {
	server := setupMockServer(t, &mockServer{})
	defer server.Close()

	info, err := newTestClient(t, server).SystemInfo(context.Background())
	if err != nil {
		t.Fatalf("SystemInfo failed: %v", err)
	}
	if info.ServerName != "media" || info.Version != "10.10.3" {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestMovies(t *testing.T) {
	server := setupMockServer(t, &mockServer{})
	defer server.Close()

	movies, err := newTestClient(t, server).Movies(context.Background())
	if err != nil {
		t.Fatalf("Movies failed: %v", err)
	}

	if len(movies) != 2 {
		t.Fatalf("expected 2 movies with TMDb ids, got %v", movies)
	}
	if movies["603"] != "m1" {
		t.Errorf("expected first item to win for duplicate TMDb id, got %s", movies["603"])
	}
	if movies["78"] != "m2" {
		t.Errorf("expected m2 for 78, got %s", movies["78"])
	}
}

func TestMovies_Unauthorized(t *testing.T) {
	server := setupMockServer(t, &mockServer{})
	defer server.Close()

	c, _ := New("jellyfin", server.URL, "wrong", "u1")
	_, err := c.Movies(context.Background())
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Errorf("expected 401 error, got %v", err)
	}
}

func TestFindCollection(t *testing.T) {
	m := &mockServer{}
	server := setupMockServer(t, m)
	defer server.Close()
	c := newTestClient(t, server)

	col, err := c.FindCollection(context.Background(), "horror movies")
	if err != nil {
		t.Fatalf("FindCollection failed: %v", err)
	}
	if col == nil || col.ID != "c1" {
		t.Errorf("expected exact (case-insensitive) match c1, got %+v", col)
	}

	col, err = c.FindCollection(context.Background(), "Horror")
	if err != nil {
		t.Fatal(err)
	}
	if col != nil {
		t.Errorf("expected no partial match, got %+v", col)
	}
}

func TestCollections(t *testing.T) {
	m := &mockServer{}
	server := setupMockServer(t, m)
	defer server.Close()

	cols, err := newTestClient(t, server).Collections(context.Background())
	if err != nil {
		t.Fatalf("Collections failed: %v", err)
	}
	if len(cols) != 2 || cols[0].ID != "c1" || cols[1].ID != "c2" {
		t.Errorf("unexpected collections %+v", cols)
	}
}

func TestCreateCollection(t *testing.T) {
	m := &mockServer{}
	server := setupMockServer(t, m)
	defer server.Close()

	id, err := newTestClient(t, server).CreateCollection(context.Background(), "Sci-Fi", []string{"m1", "m2"})
	if err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}
	if id != "new1" {
		t.Errorf("expected id new1, got %s", id)
	}
	if len(m.requests) != 1 || !strings.Contains(m.requests[0], "Ids=m1%2Cm2") || !strings.Contains(m.requests[0], "Name=Sci-Fi") {
		t.Errorf("unexpected requests %v", m.requests)
	}
}

func TestCollectionItems(t *testing.T) {
	server := setupMockServer(t, &mockServer{})
	defer server.Close()

	items, err := newTestClient(t, server).CollectionItems(context.Background(), "c1")
	if err != nil {
		t.Fatalf("CollectionItems failed: %v", err)
	}
	if len(items) != 1 || items[0].TMDBID() != "603" {
		t.Errorf("unexpected items %+v", items)
	}
}

func TestAddToCollection_QueryStrategy(t *testing.T) {
	m := &mockServer{}
	server := setupMockServer(t, m)
	defer server.Close()

	if err := newTestClient(t, server).AddToCollection(context.Background(), "c1", []string{"m1", "m2"}); err != nil {
		t.Fatalf("AddToCollection failed: %v", err)
	}
	if len(m.requests) != 1 {
		t.Errorf("expected a single request, got %v", m.requests)
	}
	if len(m.bodyAdds) != 0 {
		t.Errorf("expected body strategy not to be used, got %v", m.bodyAdds)
	}
}

func TestAddToCollection_FallsBackToBodyStrategy(t *testing.T) {
	m := &mockServer{rejectQueryAdds: true}
	server := setupMockServer(t, m)
	defer server.Close()

	if err := newTestClient(t, server).AddToCollection(context.Background(), "c1", []string{"m1", "m2"}); err != nil {
		t.Fatalf("AddToCollection failed: %v", err)
	}
	if len(m.bodyAdds) != 1 || len(m.bodyAdds[0]) != 2 {
		t.Errorf("expected body strategy with 2 ids, got %v", m.bodyAdds)
	}
}

func TestAddToCollection_AllStrategiesFail(t *testing.T) {
	server := setupMockServer(t, &mockServer{})
	defer server.Close()

	err := newTestClient(t, server).AddToCollection(context.Background(), "missing", []string{"m1"})

	var se *StrategyError
	if !errors.As(err, &se) {
		t.Fatalf("expected StrategyError, got %v", err)
	}
	if !strings.Contains(err.Error(), "strategy query") || !strings.Contains(err.Error(), "strategy body") {
		t.Errorf("expected both strategies in error, got %v", err)
	}
	if !IsNotFoundError(err) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestRemoveFromCollection_Batches(t *testing.T) {
	m := &mockServer{}
	server := setupMockServer(t, m)
	defer server.Close()

	ids := make([]string, 250)
	for i := range ids {
		ids[i] = "m"
	}
	if err := newTestClient(t, server).RemoveFromCollection(context.Background(), "c1", ids); err != nil {
		t.Fatalf("RemoveFromCollection failed: %v", err)
	}
	if len(m.requests) != 3 {
		t.Errorf("expected 3 batched requests, got %d", len(m.requests))
	}
	for _, r := range m.requests {
		if !strings.HasPrefix(r, "DELETE ") {
			t.Errorf("expected DELETE, got %s", r)
		}
	}
}

func TestUploadImage(t *testing.T) {
	m := &mockServer{}
	server := setupMockServer(t, m)
	defer server.Close()
	data := pngBytes(t)

	if err := newTestClient(t, server).UploadImage(context.Background(), "c1", ImagePrimary, data); err != nil {
		t.Fatalf("UploadImage failed: %v", err)
	}

	got, ok := m.uploads["/Items/c1/Images/Primary|image/png"]
	if !ok {
		t.Fatalf("expected primary PNG upload, got %v", m.uploads)
	}
	if !bytes.Equal(got, data) {
		t.Error("uploaded bytes differ")
	}
}

func TestUploadImage_RejectsNonImage(t *testing.T) {
	server := setupMockServer(t, &mockServer{})
	defer server.Close()

	err := newTestClient(t, server).UploadImage(context.Background(), "c1", ImagePrimary, []byte("<html>nope</html>"))
	if err == nil {
		t.Error("expected error for non-image data")
	}
}

func TestFetchImage_File(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := pngBytes(t)
	if err := afero.WriteFile(fs, "/tmp/collection_poster_x.jpg", data, 0o644); err != nil {
		t.Fatal(err)
	}
	server := setupMockServer(t, &mockServer{})
	defer server.Close()

	got, contentType, err := newTestClient(t, server, WithFs(fs)).FetchImage(context.Background(), "file:///tmp/collection_poster_x.jpg")
	if err != nil {
		t.Fatalf("FetchImage failed: %v", err)
	}
	if contentType != "image/png" {
		t.Errorf("expected sniffed image/png, got %s", contentType)
	}
	if !bytes.Equal(got, data) {
		t.Error("unexpected data")
	}
}

func TestFetchImage_LocalPosterSkipsHTTP(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := pngBytes(t)
	if err := afero.WriteFile(fs, "/tmp/posters/collection_poster_a.jpg", data, 0o644); err != nil {
		t.Fatal(err)
	}
	var hits atomic.Int32
	posters := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(data)
	}))
	defer posters.Close()
	server := setupMockServer(t, &mockServer{})
	defer server.Close()

	c := newTestClient(t, server, WithFs(fs), WithLocalPosters(posters.URL+"/posters/", "/tmp/posters"))

	got, _, err := c.FetchImage(context.Background(), posters.URL+"/posters/collection_poster_a.jpg")
	if err != nil {
		t.Fatalf("FetchImage failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("unexpected data")
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("expected local read, got %d HTTP requests", n)
	}

	// not in the poster directory: downloaded
	if _, _, err := c.FetchImage(context.Background(), posters.URL+"/posters/collection_poster_b.jpg"); err != nil {
		t.Fatalf("FetchImage failed: %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("expected 1 HTTP request for a missing local poster, got %d", n)
	}
}

func TestLocalPoster_RejectsTraversal(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/tmp/secret.png", pngBytes(t), 0o644); err != nil {
		t.Fatal(err)
	}
	server := setupMockServer(t, &mockServer{})
	defer server.Close()
	c := newTestClient(t, server, WithFs(fs), WithLocalPosters("http://sync:8090/posters", "/tmp/posters"))

	for _, raw := range []string{
		"http://sync:8090/posters/..%2Fsecret.png",
		"http://sync:8090/posters/../secret.png",
		"http://other:8090/posters/secret.png",
	} {
		if path, ok := c.localPoster(raw); ok {
			t.Errorf("localPoster(%q) = %q, expected no local file", raw, path)
		}
	}
}

func TestFetchImage_HTTP(t *testing.T) {
	data := pngBytes(t)
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/p.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer images.Close()
	server := setupMockServer(t, &mockServer{})
	defer server.Close()
	c := newTestClient(t, server)

	if _, _, err := c.FetchImage(context.Background(), images.URL+"/p.png"); err != nil {
		t.Fatalf("FetchImage failed: %v", err)
	}
	if _, _, err := c.FetchImage(context.Background(), images.URL+"/missing.png"); !IsNotFoundError(err) {
		t.Errorf("expected 404, got %v", err)
	}
	if _, _, err := c.FetchImage(context.Background(), "ftp://x/p.png"); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}

func TestSetImageFromURL(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/tmp/p.png", pngBytes(t), 0o644); err != nil {
		t.Fatal(err)
	}
	m := &mockServer{}
	server := setupMockServer(t, m)
	defer server.Close()

	err := newTestClient(t, server, WithFs(fs)).SetImageFromURL(context.Background(), "c1", ImageBackdrop, "file:///tmp/p.png")
	if err != nil {
		t.Fatalf("SetImageFromURL failed: %v", err)
	}
	if _, ok := m.uploads["/Items/c1/Images/Backdrop|image/png"]; !ok {
		t.Errorf("expected backdrop upload, got %v", m.uploads)
	}
}

func TestBatches(t *testing.T) {
	got := batches([]string{"a", "b", "c", "d", "e"}, 2)
	if len(got) != 3 || len(got[2]) != 1 {
		t.Errorf("unexpected batches %v", got)
	}
	if batches(nil, 2) != nil {
		t.Error("expected no batches for empty input")
	}
}
