package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matching"
)

type agentRequest struct {
	UserID string `json:"user_id"`
}

type submitRequest struct {
	FirstName   string         `json:"first_name" validate:"required"`
	LastName    string         `json:"last_name" validate:"required"`
	Email       string         `json:"email" validate:"required"`
	ResumeText  string         `json:"resume_text"`
	Preferences map[string]any `json:"preferences"`
}

type profileRequest struct {
	Email       string         `json:"email" validate:"required,email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	ResumeText  string         `json:"resume_text"`
	Preferences map[string]any `json:"preferences"`
}

type fetchQuery struct {
	Limit int `form:"limit" validate:"gte=0"`
}

type profileView struct {
	UserID      string          `json:"user_id"`
	Email       string          `json:"email"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	ResumeText  string          `json:"resume_text"`
	Preferences json.RawMessage `json:"preferences_json"`
}

func (s *Server) health(c *gin.Context) {
	respond(c, http.StatusOK, statusSuccess, "Server is running", nil)
}

func (s *Server) dbHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.logger.Warn("database health check failed", zap.Error(err))
		respond(c, http.StatusInternalServerError, statusFailure, "Database connection failed: "+err.Error(), nil)
		return
	}
	respond(c, http.StatusOK, statusSuccess, "Database connected", nil)
}

func (s *Server) agent(c *gin.Context) {
	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, statusError, "invalid request body", nil)
		return
	}

	res, err := s.matcher.RunForUser(c.Request.Context(), req.UserID)
	if errors.Is(err, matching.ErrMissingUserID) {
		respond(c, http.StatusBadRequest, statusError, "user_id is required", nil)
		return
	}
	if err != nil {
		s.logger.Error("running matcher", zap.String(logger.FieldUserID, req.UserID), zap.Error(err))
		respond(c, http.StatusInternalServerError, statusError, internalErrorMessage, nil)
		return
	}

	if errors.Is(res.Err, matching.ErrStoreUnavailable) {
		s.logger.Error("running matcher",
			zap.String(logger.FieldUserID, req.UserID),
			zap.String(logger.FieldRunID, res.RunID.String()),
			zap.Error(res.Err),
		)
		respond(c, http.StatusInternalServerError, statusError, internalErrorMessage, nil)
		return
	}

	respond(c, http.StatusOK, statusSuccess, "", gin.H{
		"user_id":      req.UserID,
		"run_id":       res.RunID.String(),
		"user_profile": res.Profile,
		"jobs_list":    res.Jobs,
		"matched_jobs": res.MatchedJobs,
		"response":     res.Response,
	})
}

func (s *Server) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, statusFailure, "invalid request body", nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respond(c, http.StatusBadRequest, statusFailure, validationMessage(err), nil)
		return
	}
	if err := checkPreferences(req.Preferences); err != nil {
		respond(c, http.StatusBadRequest, statusFailure, err.Error(), nil)
		return
	}

	userID, err := s.store.CreateUser(c.Request.Context(), matching.NewUser{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		ResumeText:  req.ResumeText,
		Preferences: req.Preferences,
	})
	switch {
	case errors.Is(err, matching.ErrDuplicateUser):
		respond(c, http.StatusConflict, statusFailure, "User already exists", nil)
		return
	case err != nil:
		s.logger.Error("creating user", zap.Error(err))
		respond(c, http.StatusInternalServerError, statusFailure, "Database insert failed", nil)
		return
	}

	respond(c, http.StatusCreated, statusSuccess, "User and profile created successfully", gin.H{"user_id": userID})
}

func (s *Server) upsertProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, statusFailure, "invalid request body", nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respond(c, http.StatusBadRequest, statusFailure, validationMessage(err), nil)
		return
	}
	if err := checkPreferences(req.Preferences); err != nil {
		respond(c, http.StatusBadRequest, statusFailure, err.Error(), nil)
		return
	}

	userID, err := s.store.UpsertProfile(c.Request.Context(), matching.NewUser{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		ResumeText:  req.ResumeText,
		Preferences: req.Preferences,
	})
	if err != nil {
		s.logger.Error("upserting profile", zap.Error(err))
		respond(c, http.StatusInternalServerError, statusFailure, "Profile upsert failed", nil)
		return
	}

	respond(c, http.StatusOK, statusSuccess, "Profile saved", gin.H{"user_id": userID})
}

func (s *Server) getProfile(c *gin.Context) {
	userID := c.Param("user_id")

	record, err := s.store.GetProfile(c.Request.Context(), userID)
	switch {
	case errors.Is(err, matching.ErrProfileNotFound), err == nil && record == nil:
		respond(c, http.StatusNotFound, statusFailure, "Profile not found", nil)
		return
	case err != nil:
		s.logger.Error("fetching profile", zap.String(logger.FieldUserID, userID), zap.Error(err))
		respond(c, http.StatusInternalServerError, statusFailure, "Profile fetch failed", nil)
		return
	}

	respond(c, http.StatusOK, statusSuccess, "", gin.H{"profile": profileView{
		UserID:      record.Profile.UserID,
		Email:       record.Profile.Email,
		FirstName:   record.Profile.FirstName,
		LastName:    record.Profile.LastName,
		ResumeText:  record.ResumeText,
		Preferences: json.RawMessage(record.PreferencesJSON),
	}})
}

func (s *Server) listMatches(c *gin.Context) {
	userID := c.Param("user_id")

	matches, err := s.store.ListMatches(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error("listing matches", zap.String(logger.FieldUserID, userID), zap.Error(err))
		respond(c, http.StatusInternalServerError, statusFailure, internalErrorMessage, nil)
		return
	}
	if matches == nil {
		matches = []matching.MatchRecord{}
	}

	respond(c, http.StatusOK, statusSuccess, "", gin.H{
		"user_id": userID,
		"count":   len(matches),
		"matches": matches,
	})
}

func (s *Server) fetchJobs(c *gin.Context) {
	var q fetchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond(c, http.StatusBadRequest, statusFailure, "limit must be an integer", nil)
		return
	}
	if err := s.validate.Struct(q); err != nil {
		respond(c, http.StatusBadRequest, statusFailure, validationMessage(err), nil)
		return
	}

	result, err := s.ingester.Run(c.Request.Context(), q.Limit)
	if err != nil {
		s.logger.Error("fetching jobs", zap.Error(err))
		message := err.Error()
		if errors.Is(err, matching.ErrStoreUnavailable) {
			message = internalErrorMessage
		}
		respond(c, http.StatusInternalServerError, statusFailure, message, nil)
		return
	}

	respond(c, http.StatusOK, statusSuccess, fmt.Sprintf("Fetched and stored %d jobs", result.Fetched), gin.H{
		"fetched": result.Fetched,
		"stored":  result.Stored,
	})
}

// checkPreferences rejects documents the matching pipeline could not read back.
func checkPreferences(prefs map[string]any) error {
	if len(prefs) == 0 {
		return nil
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("%w: %v", matching.ErrPreferencesParse, err)
	}
	_, err = matching.ParsePreferences(raw)
	return err
}
