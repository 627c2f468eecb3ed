package http

import (
	"errors"
	"net/http"

	"github.com/SadLabib/Spendit/internal/core"
	"github.com/SadLabib/Spendit/internal/log"
	"github.com/SadLabib/Spendit/internal/storage"
)

// CategoryListView holds data for the category list page.
type CategoryListView struct {
	User       *storage.User
	Categories []core.Category
}

// CategoryFormView holds data for the category create/edit form.
type CategoryFormView struct {
	User     *storage.User
	Category core.Category
	Error    string
	Editing  bool
}

func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	categories, err := s.store.ListCategories(r.Context(), user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list categories",
			log.FieldError, err,
			log.FieldUserID, user.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "categories.html", CategoryListView{User: user, Categories: categories})
}

func (s *Server) handleCategoryNew(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "category_form.html", CategoryFormView{User: currentUser(r)})
}

func parseCategoryForm(r *http.Request) (core.Category, error) {
	var c core.Category
	if err := r.ParseForm(); err != nil {
		return c, err
	}
	c.Title = sanitizeInput(r.FormValue("title"))
	c.Icon = sanitizeInput(r.FormValue("icon"))
	c.Type = sanitizeInput(r.FormValue("type"))
	c.Normalize()
	return c, nil
}

func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	c, err := parseCategoryForm(r)
	if err == nil {
		err = c.Validate()
	}
	if err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "category_form.html", CategoryFormView{
			User:     user,
			Category: c,
			Error:    formError(err),
		})
		return
	}

	c.UserID = user.ID
	if err := s.store.CreateCategory(r.Context(), &c); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to create category",
			log.FieldError, err,
			log.FieldUserID, user.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.options.Invalidate(user.ID)

	s.logger.InfoContext(r.Context(), "Category created",
		log.FieldUserID, user.ID,
		log.FieldCategoryID, c.ID,
		log.FieldOperation, log.OpCreate)

	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

func (s *Server) handleCategoryEditForm(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, ok := parseID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	category, err := s.store.GetCategory(r.Context(), user.ID, id)
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "category_form.html", CategoryFormView{
		User:     user,
		Category: *category,
		Editing:  true,
	})
}

func (s *Server) handleCategoryEdit(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, ok := parseID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	c, err := parseCategoryForm(r)
	if err == nil {
		err = c.Validate()
	}
	if err != nil {
		c.ID = id
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "category_form.html", CategoryFormView{
			User:     user,
			Category: c,
			Error:    formError(err),
			Editing:  true,
		})
		return
	}

	c.ID = id
	c.UserID = user.ID
	if err := s.store.UpdateCategory(r.Context(), &c); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to update category",
			log.FieldError, err,
			log.FieldUserID, user.ID,
			log.FieldCategoryID, id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.options.Invalidate(user.ID)

	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, ok := parseID(r)
	if ok {
		if err := s.store.DeleteCategory(r.Context(), user.ID, id); err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to delete category",
				log.FieldError, err,
				log.FieldUserID, user.ID,
				log.FieldCategoryID, id)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.options.Invalidate(user.ID)

		s.logger.InfoContext(r.Context(), "Category deleted",
			log.FieldUserID, user.ID,
			log.FieldCategoryID, id,
			log.FieldOperation, log.OpDelete)
	}
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}
