package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/playback"
	"github.com/desertthunder/ytplaylists/internal/services"
	"github.com/desertthunder/ytplaylists/internal/shared"
	"github.com/desertthunder/ytplaylists/internal/store"
)

// API implements the JSON endpoints over the playlist store, the video provider and the
// per-user playback sessions.
type API struct {
	store    *store.Store
	provider services.VideoProvider
	sessions *SessionManager
	players  *PlayerRegistry
	logger   *log.Logger
}

func NewAPI(st *store.Store, provider services.VideoProvider, sessions *SessionManager, logger *log.Logger) *API {
	var metadata playback.MetadataSource
	if provider != nil {
		metadata = provider
	}
	return &API{
		store:    st,
		provider: provider,
		sessions: sessions,
		players:  NewPlayerRegistry(st, metadata, logger),
		logger:   logger,
	}
}

// Register adds every route to r.
func (a *API) Register(r Router) {
	public := func(method, path string, fn http.HandlerFunc) {
		r.Handle(method, path, fn)
	}
	authed := r.Group(a.sessions.Require)
	private := func(method, path string, fn http.HandlerFunc) {
		authed.Handle(method, path, fn)
	}

	public(http.MethodPost, "/api/register", a.register)
	public(http.MethodPost, "/api/login", a.login)
	public(http.MethodPost, "/api/logout", a.logout)
	public(http.MethodGet, "/api/users/{username}/image", a.userImage)

	private(http.MethodGet, "/api/me", a.me)
	private(http.MethodGet, "/api/users/{username}/playlists", a.userPlaylists)
	private(http.MethodPost, "/api/playlists", a.createPlaylist)
	private(http.MethodGet, "/api/playlists/{id}", a.getPlaylist)
	private(http.MethodPut, "/api/playlists/{id}", a.renamePlaylist)
	private(http.MethodDelete, "/api/playlists/{id}", a.deletePlaylist)
	private(http.MethodPost, "/api/playlists/{id}/songs", a.addSong)
	private(http.MethodDelete, "/api/playlists/{id}/songs/{entryId}", a.removeSong)
	private(http.MethodPut, "/api/playlists/{id}/songs/{entryId}", a.rateSong)
	private(http.MethodGet, "/api/playlists/{id}/videos", a.playlistVideos)
	private(http.MethodGet, "/api/search", a.search)

	private(http.MethodGet, "/api/player", a.playerState)
	private(http.MethodPost, "/api/player/{action}", a.playerAction)
	private(http.MethodPut, "/api/player/view", a.playerView)
}

func (a *API) currentUser(r *http.Request) string {
	u, _ := UserFromContext(r.Context())
	return u
}

// requireOwner fails unless the session user owns playlist id.
func (a *API) requireOwner(r *http.Request, id string) error {
	owns, err := a.store.OwnsPlaylist(r.Context(), a.currentUser(r), id)
	if err != nil {
		return err
	}
	if !owns {
		return fmt.Errorf("%w: You do not have access to this playlist", shared.ErrForbidden)
	}
	return nil
}

// activeSession returns the user's playback session when it is showing playlist id.
func (a *API) activeSession(r *http.Request, id string) (*playback.Session, bool) {
	up, ok := a.players.Lookup(a.currentUser(r))
	if !ok || up.session.Active().PlaylistID != id {
		return nil, false
	}
	return up.session, true
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ImageURL  string `json:"imageUrl"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := a.store.CreateUser(r.Context(), store.Registration{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		AvatarRef: req.ImageURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := a.store.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := a.sessions.Issue(user.Username)
	if err != nil {
		a.logger.Error("failed to sign session", "error", err)
		writeError(w, err)
		return
	}

	http.SetCookie(w, a.sessions.Cookie(token))
	writeJSON(w, http.StatusOK, user)
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if username, err := a.sessions.Parse(cookie.Value); err == nil {
			a.players.Drop(username)
		}
	}
	http.SetCookie(w, a.sessions.ClearCookie())
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	user, err := a.store.GetUser(r.Context(), a.currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) userImage(w http.ResponseWriter, r *http.Request) {
	avatar, err := a.store.UserAvatar(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": avatar})
}

func (a *API) userPlaylists(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if username != a.currentUser(r) {
		writeError(w, fmt.Errorf("%w: You can only list your own playlists", shared.ErrForbidden))
		return
	}

	playlists, err := a.store.ListPlaylistsForUser(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	if playlists == nil {
		playlists = []*models.Playlist{}
	}
	writeJSON(w, http.StatusOK, playlists)
}

type playlistRequest struct {
	Name string `json:"name"`
}

func (a *API) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	playlist, err := a.store.CreatePlaylist(r.Context(), req.Name, a.currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, playlist)
}

func (a *API) getPlaylist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.requireOwner(r, id); err != nil {
		writeError(w, err)
		return
	}

	playlist, err := a.store.GetPlaylist(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (a *API) renamePlaylist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req playlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.requireOwner(r, id); err != nil {
		writeError(w, err)
		return
	}

	playlist, err := a.store.RenamePlaylist(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (a *API) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.requireOwner(r, id); err != nil {
		writeError(w, err)
		return
	}

	if err := a.store.DeletePlaylist(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	if _, ok := a.activeSession(r, id); ok {
		a.players.Drop(a.currentUser(r))
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Playlist deleted"})
}

type songRequest struct {
	YouTubeID string `json:"youtubeId"`
}

func (a *API) addSong(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req songRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.requireOwner(r, id); err != nil {
		writeError(w, err)
		return
	}

	var err error
	if session, ok := a.activeSession(r, id); ok {
		_, err = session.Add(r.Context(), req.YouTubeID)
	} else {
		_, err = a.store.AddSong(r.Context(), id, req.YouTubeID)
	}
	a.respondPlaylist(w, r, id, err)
}

func (a *API) removeSong(w http.ResponseWriter, r *http.Request) {
	id, entryID := r.PathValue("id"), r.PathValue("entryId")
	if err := a.requireOwner(r, id); err != nil {
		writeError(w, err)
		return
	}

	var err error
	if session, ok := a.activeSession(r, id); ok {
		err = session.Delete(r.Context(), entryID)
	} else {
		_, err = a.store.RemoveSong(r.Context(), id, entryID)
	}
	a.respondPlaylist(w, r, id, err)
}

func (a *API) respondPlaylist(w http.ResponseWriter, r *http.Request, id string, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	playlist, err := a.store.GetPlaylist(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

type rateRequest struct {
	Rating flexibleString `json:"rating"`
}

func (a *API) rateSong(w http.ResponseWriter, r *http.Request) {
	id, entryID := r.PathValue("id"), r.PathValue("entryId")
	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.requireOwner(r, id); err != nil {
		writeError(w, err)
		return
	}

	if session, ok := a.activeSession(r, id); ok {
		rating, err := store.ParseRating(string(req.Rating))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := session.Rate(r.Context(), entryID, rating); err != nil {
			writeError(w, err)
			return
		}
		a.respondEntry(w, r, id, entryID)
		return
	}

	entry, err := a.store.RateSong(r.Context(), id, entryID, string(req.Rating))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *API) respondEntry(w http.ResponseWriter, r *http.Request, id, entryID string) {
	playlist, err := a.store.GetPlaylist(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	entry, ok := playlist.Entry(entryID)
	if !ok {
		writeError(w, fmt.Errorf("%w: Song not found in playlist", shared.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type playlistVideosResponse struct {
	Playlist *models.Playlist           `json:"playlist"`
	Videos   []models.EnrichedSongEntry `json:"videos"`
	Degraded bool                       `json:"degraded"`
}

func (a *API) playlistVideos(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.requireOwner(r, id); err != nil {
		writeError(w, err)
		return
	}

	playlist, err := a.store.GetPlaylist(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := playlistVideosResponse{Playlist: playlist}
	metadata, err := a.lookup(r.Context(), playlist.YouTubeIDs())
	if err != nil {
		a.logger.Warn("video lookup failed", "playlist", id, "error", err)
		resp.Degraded = true
	}
	resp.Videos = models.Enrich(playlist.Songs, metadata)
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) lookup(ctx context.Context, ids []string) (map[string]models.VideoMetadata, error) {
	if a.provider == nil {
		return nil, fmt.Errorf("%w: no video provider configured", shared.ErrServiceUnavailable)
	}
	return a.provider.Videos(ctx, ids)
}

func (a *API) search(w http.ResponseWriter, r *http.Request) {
	if a.provider == nil {
		writeError(w, fmt.Errorf("%w: no video provider configured", shared.ErrServiceUnavailable))
		return
	}

	limit := services.DefaultSearchResults
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, fmt.Errorf("%w: max must be a positive integer", shared.ErrValidation))
			return
		}
		limit = n
	}

	results, err := a.provider.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type playerResponse struct {
	playback.SessionSnapshot
	EmbedURL string `json:"embedUrl,omitempty"`
}

func (a *API) playerState(w http.ResponseWriter, r *http.Request) {
	a.writePlayer(w, a.players.Get(a.currentUser(r)))
}

func (a *API) writePlayer(w http.ResponseWriter, up *userPlayer) {
	writeJSON(w, http.StatusOK, playerResponse{
		SessionSnapshot: up.session.Snapshot(),
		EmbedURL:        up.player.embedURL(),
	})
}

type playerActionRequest struct {
	PlaylistID string `json:"playlistId"`
	Index      *int   `json:"index"`
	EntryID    string `json:"entryId"`
}

func (a *API) playerAction(w http.ResponseWriter, r *http.Request) {
	up := a.players.Get(a.currentUser(r))
	session := up.session

	var req playerActionRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	var err error
	switch action := r.PathValue("action"); action {
	case "select":
		if err = a.requireOwner(r, req.PlaylistID); err == nil {
			err = session.Open(r.Context(), req.PlaylistID)
		}
	case "start":
		err = session.Start()
	case "resume":
		err = session.Resume()
	case "play":
		switch {
		case req.EntryID != "":
			err = session.PlayEntry(req.EntryID)
		case req.Index != nil:
			err = session.PlayAt(*req.Index)
		default:
			err = fmt.Errorf("%w: index or entryId is required", shared.ErrValidation)
		}
	case "next":
		err = session.Next()
	case "previous":
		err = session.Previous()
	case "ended":
		err = session.Ended()
	case "close":
		err = session.Close()
	default:
		err = fmt.Errorf("%w: unknown player action %q", shared.ErrNotFound, action)
	}

	if err != nil {
		writeError(w, err)
		return
	}
	a.writePlayer(w, up)
}

type playerViewRequest struct {
	Filter *string            `json:"filter"`
	Sort   *playback.SortType `json:"sort"`
}

func (a *API) playerView(w http.ResponseWriter, r *http.Request) {
	var req playerViewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	up := a.players.Get(a.currentUser(r))
	if req.Filter != nil {
		up.session.SetFilter(*req.Filter)
	}
	if req.Sort != nil {
		up.session.Sort(*req.Sort)
	}
	a.writePlayer(w, up)
}
