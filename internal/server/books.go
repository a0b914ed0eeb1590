package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"shelfmark/internal/app"
	"shelfmark/pkg/domain"
)

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		s.handleOwnBooks(w, r, user)
	case http.MethodPost:
		s.handleCreateBook(w, r, user)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleOwnBooks(w http.ResponseWriter, r *http.Request, user domain.User) {
	query := r.URL.Query()
	params, err := s.parsePageParams(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := parseCategoryParam(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.app.GetOwnBooks(r.Context(), user.ID, params.Page, params.Limit, category)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request, user domain.User) {
	fields, cover, ok := s.parseBookForm(w, r)
	if !ok {
		return
	}
	book, err := s.app.CreateBook(r.Context(), user.ID, fields, cover)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

func (s *Server) handleBookByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := pathSuffix(r.URL.Path, "/books/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		book, err := s.app.GetBook(r.Context(), user.ID, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	case http.MethodPatch, http.MethodPut:
		fields, cover, ok := s.parseBookForm(w, r)
		if !ok {
			return
		}
		book, err := s.app.UpdateBook(r.Context(), user.ID, id, fields, cover)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	case http.MethodDelete:
		if err := s.app.DeleteBook(r.Context(), user.ID, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

// admin listings
func (s *Server) handleAllBooks(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	s.serveAllBooks(w, r, strings.TrimSpace(r.URL.Query().Get("userId")))
}

// /books/user/{id} narrows the admin listing to one user's library.
func (s *Server) handleBooksByUser(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id := pathSuffix(r.URL.Path, "/books/user/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	s.serveAllBooks(w, r, id)
}

func (s *Server) serveAllBooks(w http.ResponseWriter, r *http.Request, ownerID string) {
	query := r.URL.Query()
	params, err := s.parsePageParams(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sort, err := parseSortParams(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := parseCategoryParam(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.app.GetAllBooks(r.Context(), app.AllBooksQuery{
		Page:     params.Page,
		Limit:    params.Limit,
		OwnerID:  ownerID,
		Search:   strings.TrimSpace(query.Get("search")),
		Category: category,
		Sort:     sort,
	})
	if err != nil {
		if errors.Is(err, app.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User with id "+ownerID+" not found")
			return
		}
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// parseBookForm reads book fields from either a multipart form (cover
// upload included) or a JSON body. It writes the error response itself
// and reports success via ok.
func (s *Server) parseBookForm(w http.ResponseWriter, r *http.Request) (app.BookFields, *app.Upload, bool) {
	fields := app.BookFields{}
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
		if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return fields, nil, false
		}
		if v, ok := formValue(r, "title"); ok {
			fields.Title = &v
		}
		if v, ok := formValue(r, "author"); ok {
			fields.Author = &v
		}
		if v, ok := formValue(r, "category"); ok {
			fields.Category = &v
		}
		if v, ok := formValue(r, "status"); ok {
			fields.Status = &v
		}
		if v, ok := formValue(r, "review"); ok {
			fields.Review = &v
		}
		if v, ok := formValue(r, "rating"); ok {
			rating, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				writeError(w, http.StatusBadRequest, "rating must be an integer")
				return fields, nil, false
			}
			fields.Rating = &rating
		}
		file, header, err := r.FormFile("coverImage")
		if err == nil {
			if !s.isExtensionAllowed(header.Filename) {
				file.Close()
				writeError(w, http.StatusBadRequest, "unsupported image type")
				return fields, nil, false
			}
			return fields, &app.Upload{Filename: header.Filename, Reader: file, Size: header.Size}, true
		}
		if !errors.Is(err, http.ErrMissingFile) {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return fields, nil, false
		}
		return fields, nil, true
	}

	var req struct {
		Title    *string `json:"title"`
		Author   *string `json:"author"`
		Category *string `json:"category"`
		Status   *string `json:"status"`
		Rating   *int    `json:"rating"`
		Review   *string `json:"review"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return fields, nil, false
	}
	fields.Title = req.Title
	fields.Author = req.Author
	fields.Category = req.Category
	fields.Status = req.Status
	fields.Rating = req.Rating
	fields.Review = req.Review
	return fields, nil, true
}
