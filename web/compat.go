package web

import (
	"net/http"
	"strings"

	"github.com/qdispatch/qdispatch/models"
)

// handleCompatLogin mimics qBittorrent's auth/login: any credentials are
// accepted, a dummy session cookie is set, and the body is the literal
// "Ok." the WebUI client checks for.
func (s *Server) handleCompatLogin(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "SID", Value: "qdispatch", Path: "/"})
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("Ok."))
}

// handleCompatAdd mimics torrents/add: it accepts a magnet URI via the
// `urls` form field, forwards it through the Dispatcher with category
// defaulting to "default", and answers "Ok." on acceptance; any other
// outcome is a 503 carrying the decision as JSON.
func (s *Server) handleCompatAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Fails.", http.StatusBadRequest)
		return
	}
	urls := strings.TrimSpace(r.FormValue("urls"))
	if urls == "" || !strings.HasPrefix(urls, "magnet:?") {
		http.Error(w, "Fails.", http.StatusBadRequest)
		return
	}
	category := r.FormValue("category")
	if category == "" {
		category = "default"
	}
	req := models.SubmitRequest{
		Name:     nameFromMagnet(urls),
		Category: category,
		Magnet:   urls,
		Source:   "compat",
	}
	decision, err := s.disp.Submit(r.Context(), req)
	if err != nil || decision.Status != models.StatusAccepted {
		writeJSON(w, http.StatusServiceUnavailable, decision)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("Ok."))
}

func (s *Server) handleCompatVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("v4.6.0"))
}

func (s *Server) handleCompatWebAPIVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("2.9.3"))
}

// nameFromMagnet pulls the display-name hint (`dn=`) out of a magnet URI,
// falling back to the raw URI when none is present.
func nameFromMagnet(magnet string) string {
	const marker = "dn="
	idx := strings.Index(magnet, marker)
	if idx == -1 {
		return magnet
	}
	rest := magnet[idx+len(marker):]
	if amp := strings.IndexByte(rest, '&'); amp != -1 {
		rest = rest[:amp]
	}
	return rest
}
