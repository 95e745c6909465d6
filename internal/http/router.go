package http

import (
	"net/http"
	"strconv"
	"strings"
)

// RouterConfig carries the handlers mounted by NewRouter. Nil handlers leave
// their routes unmounted, which keeps tests small.
type RouterConfig struct {
	Auth          *AuthHandler
	Plans         *PlanHandler
	Events        *EventHandler
	Entries       *EntryHandler
	Passphrases   *PassphraseHandler
	Announcements *AnnouncementHandler
	Middleware    []func(http.Handler) http.Handler
}

// NewRouter assembles the HTTP API. All event-scoped routes live under
// /events/{id}; the middleware chain wraps the whole mux outermost-first.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Events != nil {
		mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Events.Create(w, r)
		})
	}

	mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
		dispatchEventRoute(cfg, w, r)
	})

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

// dispatchEventRoute resolves /events/{id}[/collection[/{sub}[/plan]]].
func dispatchEventRoute(cfg RouterConfig, w http.ResponseWriter, r *http.Request) {
	segments := splitPath(strings.TrimPrefix(r.URL.Path, "/events/"))
	if len(segments) == 0 {
		http.NotFound(w, r)
		return
	}

	eventID, ok := parseID(segments[0])
	if !ok {
		newResponder(nil).writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	if len(segments) == 1 {
		switch r.Method {
		case http.MethodGet:
			if cfg.Plans == nil {
				http.NotFound(w, r)
				return
			}
			cfg.Plans.Event(w, r, eventID)
		case http.MethodPut:
			if cfg.Events == nil {
				http.NotFound(w, r)
				return
			}
			cfg.Events.Update(w, r, eventID)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut)
		}
		return
	}

	switch segments[1] {
	case "login":
		if cfg.Auth == nil || len(segments) != 2 {
			http.NotFound(w, r)
			return
		}
		requireMethod(w, r, http.MethodPost, func() { cfg.Auth.Login(w, r, eventID) })

	case "share-link":
		if cfg.Auth == nil || len(segments) != 2 {
			http.NotFound(w, r)
			return
		}
		requireMethod(w, r, http.MethodPost, func() { cfg.Auth.ShareLink(w, r, eventID) })

	case "plan":
		if cfg.Plans == nil || len(segments) != 2 {
			http.NotFound(w, r)
			return
		}
		requireMethod(w, r, http.MethodGet, func() { cfg.Plans.Day(w, r, eventID) })

	case "feed":
		if cfg.Plans == nil || len(segments) != 2 {
			http.NotFound(w, r)
			return
		}
		requireMethod(w, r, http.MethodGet, func() { cfg.Plans.Feed(w, r, eventID) })

	case "config":
		if cfg.Events == nil || len(segments) != 2 {
			http.NotFound(w, r)
			return
		}
		requireMethod(w, r, http.MethodGet, func() { cfg.Events.Config(w, r, eventID) })

	case "entries":
		dispatchEntries(cfg, w, r, eventID, segments[2:])

	case "categories":
		dispatchCategories(cfg, w, r, eventID, segments[2:])

	case "rooms":
		dispatchRooms(cfg, w, r, eventID, segments[2:])

	case "passphrases":
		dispatchPassphrases(cfg, w, r, eventID, segments[2:])

	case "announcements":
		dispatchAnnouncements(cfg, w, r, eventID, segments[2:])

	default:
		http.NotFound(w, r)
	}
}

func dispatchEntries(cfg RouterConfig, w http.ResponseWriter, r *http.Request, eventID int64, rest []string) {
	if cfg.Entries == nil {
		http.NotFound(w, r)
		return
	}

	switch len(rest) {
	case 0:
		requireMethod(w, r, http.MethodPost, func() { cfg.Entries.Create(w, r, eventID) })
	case 1:
		entryID, ok := parseID(rest[0])
		if !ok {
			newResponder(nil).writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
			return
		}
		switch r.Method {
		case http.MethodGet:
			cfg.Entries.Get(w, r, eventID, entryID)
		case http.MethodPut:
			cfg.Entries.Update(w, r, eventID, entryID)
		case http.MethodDelete:
			cfg.Entries.Delete(w, r, eventID, entryID)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	default:
		http.NotFound(w, r)
	}
}

func dispatchCategories(cfg RouterConfig, w http.ResponseWriter, r *http.Request, eventID int64, rest []string) {
	switch len(rest) {
	case 0:
		if cfg.Events == nil {
			http.NotFound(w, r)
			return
		}
		requireMethod(w, r, http.MethodPost, func() { cfg.Events.CreateCategory(w, r, eventID) })
	case 1:
		if cfg.Events == nil {
			http.NotFound(w, r)
			return
		}
		categoryID, ok := parseID(rest[0])
		if !ok {
			newResponder(nil).writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
			return
		}
		requireMethod(w, r, http.MethodDelete, func() { cfg.Events.DeleteCategory(w, r, eventID, categoryID) })
	case 2:
		if cfg.Plans == nil || rest[1] != "plan" {
			http.NotFound(w, r)
			return
		}
		categoryID, ok := parseID(rest[0])
		if !ok {
			newResponder(nil).writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
			return
		}
		requireMethod(w, r, http.MethodGet, func() { cfg.Plans.Category(w, r, eventID, categoryID) })
	default:
		http.NotFound(w, r)
	}
}

func dispatchRooms(cfg RouterConfig, w http.ResponseWriter, r *http.Request, eventID int64, rest []string) {
	switch len(rest) {
	case 0:
		if cfg.Events == nil {
			http.NotFound(w, r)
			return
		}
		requireMethod(w, r, http.MethodPost, func() { cfg.Events.CreateRoom(w, r, eventID) })
	case 1:
		if cfg.Events == nil {
			http.NotFound(w, r)
			return
		}
		roomID, ok := parseID(rest[0])
		if !ok {
			newResponder(nil).writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
			return
		}
		requireMethod(w, r, http.MethodDelete, func() { cfg.Events.DeleteRoom(w, r, eventID, roomID) })
	case 2:
		if cfg.Plans == nil || rest[1] != "plan" {
			http.NotFound(w, r)
			return
		}
		roomID, ok := parseID(rest[0])
		if !ok {
			newResponder(nil).writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
			return
		}
		requireMethod(w, r, http.MethodGet, func() { cfg.Plans.Room(w, r, eventID, roomID) })
	default:
		http.NotFound(w, r)
	}
}

func dispatchPassphrases(cfg RouterConfig, w http.ResponseWriter, r *http.Request, eventID int64, rest []string) {
	if cfg.Passphrases == nil {
		http.NotFound(w, r)
		return
	}

	switch len(rest) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			cfg.Passphrases.List(w, r, eventID)
		case http.MethodPost:
			cfg.Passphrases.Create(w, r, eventID)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case 1:
		id, ok := parseID(rest[0])
		if !ok || id > 1<<31-1 {
			newResponder(nil).writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
			return
		}
		requireMethod(w, r, http.MethodDelete, func() { cfg.Passphrases.Delete(w, r, eventID, int32(id)) })
	default:
		http.NotFound(w, r)
	}
}

func dispatchAnnouncements(cfg RouterConfig, w http.ResponseWriter, r *http.Request, eventID int64, rest []string) {
	if cfg.Announcements == nil {
		http.NotFound(w, r)
		return
	}

	switch len(rest) {
	case 0:
		requireMethod(w, r, http.MethodPost, func() { cfg.Announcements.Create(w, r, eventID) })
	case 1:
		id, ok := parseID(rest[0])
		if !ok {
			newResponder(nil).writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
			return
		}
		requireMethod(w, r, http.MethodDelete, func() { cfg.Announcements.Delete(w, r, eventID, id) })
	default:
		http.NotFound(w, r)
	}
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string, serve func()) {
	if r.Method != method {
		methodNotAllowed(w, method)
		return
	}
	serve()
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func parseID(segment string) (int64, bool) {
	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
