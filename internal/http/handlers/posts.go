package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type AnalyzeJSONRequest struct {
	ImageData string `json:"image_data"`
	MimeType  string `json:"mime_type"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

// ListPosts: GET /posts?page=&size=&scam_type=
func (h *Handler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	res, err := h.Feed.ListPosts(c.Request.Context(), page, size, c.Query("scam_type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.Feed.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreatePost: multipart upload, always published with the user's description
func (h *Handler) CreatePost(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	image, mimeType, ok := h.readUpload(c)
	if !ok {
		return
	}

	res, err := h.Pipeline.Publish(c.Request.Context(), userID, image, mimeType, c.PostForm("description"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res.Post)
}

// AnalyzePost: preview verdict, nothing is stored
func (h *Handler) AnalyzePost(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	image, mimeType, ok := h.readUpload(c)
	if !ok {
		return
	}

	res, err := h.Pipeline.Analyze(c.Request.Context(), userID, image, mimeType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AnalyzeJSON: base64 image, published when the score reaches the threshold
func (h *Handler) AnalyzeJSON(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if h.MaxUploadBytes > 0 {
		// base64 inflates by 4/3
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes*4/3+1024)
	}

	var req AnalyzeJSONRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	image, err := decodeImageData(req.ImageData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_data is not valid base64"})
		return
	}

	res, err := h.Pipeline.AnalyzeAndPublish(c.Request.Context(), userID, image, req.MimeType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// decodeImageData accepts raw base64 or a data URL
func decodeImageData(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if strings.HasPrefix(data, "data:") {
		if i := strings.Index(data, ","); i >= 0 {
			data = data[i+1:]
		}
	}
	return base64.StdEncoding.DecodeString(data)
}

func (h *Handler) readUpload(c *gin.Context) ([]byte, string, bool) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+1<<20)
	}
	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
			return nil, "", false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return nil, "", false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image"})
		return nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image"})
		return nil, "", false
	}
	return data, fh.Header.Get("Content-Type"), true
}

func (h *Handler) LikePost(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	res, err := h.Feed.ToggleLike(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListComments(c *gin.Context) {
	comments, err := h.Feed.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *Handler) AddComment(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	res, err := h.Feed.AddComment(c.Request.Context(), userID, c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) TrendingTypes(c *gin.Context) {
	items, err := h.Feed.Trending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) StatsSummary(c *gin.Context) {
	stats, err := h.Feed.StatsSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
