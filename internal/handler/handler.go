package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"Member_Registry/internal/middleware"
	"Member_Registry/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	maxUploadBytes  = 10 << 20
	multipartBuffer = 1 << 20
)

// writeError 业务错误按其状态码返回；其余记录日志后返回 500
func writeError(c *gin.Context, err error) {
	status, msg := service.StatusOf(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func badJSON(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
}

func success(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// actorFrom 认证中间件注入的用户加上请求信息
func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		UserID:    c.GetString(middleware.ContextUserIDKey),
		Email:     c.GetString(middleware.ContextEmailKey),
		Role:      c.GetString(middleware.ContextRoleKey),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: c.GetString(middleware.ContextRequestIDKey),
	}
}

func uintParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

var errUploadTooLarge = &service.RequestError{Status: http.StatusRequestEntityTooLarge, Message: "File too large"}

// readUpload multipart 的 file 字段或整个请求体，超过 maxUploadBytes 报 413
func readUpload(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes+multipartBuffer)
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, uploadError(err)
		}
		if fh.Size > maxUploadBytes {
			return nil, errUploadTooLarge
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, uploadError(err)
	}
	return data, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errUploadTooLarge
	}
	return err
}

// uploadFailed 超限返回 413，其余按没有文件处理
func uploadFailed(c *gin.Context, err error) {
	if errors.Is(err, errUploadTooLarge) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
}

func sendCSV(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
