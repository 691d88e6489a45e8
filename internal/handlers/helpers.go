package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"purchase_manager_backend/internal/services"
	"purchase_manager_backend/internal/storage"
	"purchase_manager_backend/pkg/utils"
)

// actorFromContext reads the caller set by the auth middleware.
func actorFromContext(c *gin.Context) services.Actor {
	actor := services.Actor{}
	if id, ok := c.Get("userID"); ok {
		actor.UserID, _ = id.(int64)
	}
	if role, ok := c.Get("userRole"); ok {
		actor.Role, _ = role.(string)
	}
	return actor
}

// idParam parses a positive path parameter, answering 400 when it is not one.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondValidationFailed(c, "Invalid "+name, "path parameter must be a positive integer")
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter. Missing means 0.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid "+name, name+" must be an integer")
		return 0, false
	}
	return v, true
}

func queryInt64Ptr(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid "+name, name+" must be an integer")
		return nil, false
	}
	return &v, true
}

// queryIDList accepts ?ids=1,2 as well as ?ids=1&ids=2 and ?ids[]=1.
func queryIDList(c *gin.Context, name string) ([]int64, bool) {
	values := append(c.QueryArray(name), c.QueryArray(name+"[]")...)
	ids, err := utils.ParseIDList(values)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid "+name, err.Error())
		return nil, false
	}
	return ids, true
}

// bindPayload decodes a JSON body, or the "data" field of a multipart form
// when a file travels with the payload, then runs the binding validator.
func bindPayload(c *gin.Context, dst interface{}) bool {
	var err error
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		data := c.PostForm("data")
		if data == "" {
			data = "{}"
		}
		if err = json.Unmarshal([]byte(data), dst); err == nil {
			err = binding.Validator.ValidateStruct(dst)
		}
	} else {
		err = c.ShouldBindJSON(dst)
	}
	if err != nil {
		utils.LogDebug("Request payload rejected", map[string]interface{}{"path": c.FullPath(), "error": err.Error()})
		utils.RespondValidationFailed(c, "Invalid request payload", err.Error())
		return false
	}
	return true
}

// saveUpload stores the optional "image" form file under dir and returns its
// public path, or nil when no file was sent.
func saveUpload(c *gin.Context, store storage.Store, dir string) (*string, bool) {
	if store == nil || !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, true
	}
	file, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		utils.RespondValidationFailed(c, "Invalid file upload", err.Error())
		return nil, false
	}
	path, err := store.Save(c.Request.Context(), dir, file)
	if err != nil {
		respondServiceError(c, err, "saveUpload: failed to store "+dir+" file")
		return nil, false
	}
	return &path, true
}

// discardUpload removes a file stored by saveUpload whose request then failed.
func discardUpload(c *gin.Context, store storage.Store, path *string) {
	if store == nil || path == nil {
		return
	}
	if err := store.Delete(c.Request.Context(), *path); err != nil {
		utils.LogWarn("Failed to discard upload", map[string]interface{}{"path": *path, "error": err.Error()})
	}
}
