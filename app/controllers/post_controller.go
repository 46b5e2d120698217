package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"postsapi/app/models"
	"postsapi/app/repositories"
	"postsapi/app/services"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	pkgerrors "github.com/pkg/errors"
)

// Client-facing messages. They are part of the API contract.
const (
	MsgPostNotFound   = "The post with the specified ID does not exist"
	MsgMissingFields  = "Please provide title and contents for the post"
	MsgListFailed     = "The posts information could not be retrieved"
	MsgGetFailed      = "The post information could not be retrieved"
	MsgCreateFailed   = "There was an error while saving the post to the database"
	MsgUpdateFailed   = "The post information could not be modified"
	MsgDeleteFailed   = "The post could not be removed"
	MsgCommentsFailed = "The comments information could not be retrieved"
)

// ErrorResponse is the body of every non-2xx response. Error is only set
// for store failures.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// PostController handles HTTP requests for blog posts
type PostController struct {
	postService *services.PostService
	log         *slog.Logger
}

// NewPostController creates a new PostController over store.
func NewPostController(store repositories.PostStore, l *slog.Logger) *PostController {
	return &PostController{
		postService: services.NewPostService(store),
		log:         l,
	}
}

// Index handles listing all posts
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.postService.ListPosts(r.Context())
	if err != nil {
		pc.sendStoreError(w, r, MsgListFailed, err)
		return
	}
	pc.sendJSON(w, http.StatusOK, posts)
}

// Show handles displaying a single post
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	post, err := pc.postService.GetPost(r.Context(), mux.Vars(r)["id"])
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		pc.sendError(w, http.StatusNotFound, MsgPostNotFound)
	case err != nil:
		pc.sendStoreError(w, r, MsgGetFailed, err)
	default:
		pc.sendJSON(w, http.StatusOK, post)
	}
}

// Create handles creating a new post
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(r)
	if !ok {
		pc.sendError(w, http.StatusBadRequest, MsgMissingFields)
		return
	}

	post, err := pc.postService.CreatePost(r.Context(), in)
	switch {
	case errors.Is(err, services.ErrValidation):
		pc.sendError(w, http.StatusBadRequest, MsgMissingFields)
	case err != nil:
		pc.sendStoreError(w, r, MsgCreateFailed, err)
	default:
		pc.sendJSON(w, http.StatusCreated, post)
	}
}

// Edit handles updating an existing post
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(r)
	if !ok {
		pc.sendError(w, http.StatusBadRequest, MsgMissingFields)
		return
	}

	post, err := pc.postService.UpdatePost(r.Context(), mux.Vars(r)["id"], in)
	switch {
	case errors.Is(err, services.ErrValidation):
		pc.sendError(w, http.StatusBadRequest, MsgMissingFields)
	case errors.Is(err, repositories.ErrNotFound):
		pc.sendError(w, http.StatusNotFound, MsgPostNotFound)
	case err != nil:
		pc.sendStoreError(w, r, MsgUpdateFailed, err)
	default:
		pc.sendJSON(w, http.StatusOK, post)
	}
}

// Delete handles deleting a post. The body is the post as it was before deletion.
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	post, err := pc.postService.DeletePost(r.Context(), mux.Vars(r)["id"])
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		pc.sendError(w, http.StatusNotFound, MsgPostNotFound)
	case err != nil:
		pc.sendStoreError(w, r, MsgDeleteFailed, err)
	default:
		pc.sendJSON(w, http.StatusOK, post)
	}
}

// Comments handles listing a post's comments
func (pc *PostController) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := pc.postService.ListComments(r.Context(), mux.Vars(r)["id"])
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		pc.sendError(w, http.StatusNotFound, MsgPostNotFound)
	case err != nil:
		pc.sendStoreError(w, r, MsgCommentsFailed, err)
	default:
		pc.sendJSON(w, http.StatusOK, comments)
	}
}

// decodeInput reads a {title, contents} body. Anything that is not a JSON
// object with string fields counts as missing fields.
func decodeInput(r *http.Request) (models.PostInput, bool) {
	var in models.PostInput
	if r.Body == nil {
		return in, false
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, false
	}
	return in, true
}

// Helper methods for consistent response handling

func (pc *PostController) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (pc *PostController) sendError(w http.ResponseWriter, status int, message string) {
	pc.sendJSON(w, status, ErrorResponse{Message: message})
}

func (pc *PostController) sendStoreError(w http.ResponseWriter, r *http.Request, message string, err error) {
	pc.log.ErrorContext(r.Context(), message,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("err", err),
	)
	// Clients get the root failure; the wrapped chain stays in the log.
	pc.sendJSON(w, http.StatusInternalServerError, ErrorResponse{Message: message, Error: pkgerrors.Cause(err).Error()})
}
