package server

import (
	"net/http"

	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) Register(c *gin.Context) {
	req, ok := bindJSON[authdomain.RegisterRequest](c)
	if !ok {
		return
	}
	req.UserAgent = c.Request.UserAgent()
	req.IPAddress = c.ClientIP()

	result, err := s.authsvc.Register(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (s *Server) Login(c *gin.Context) {
	req, ok := bindJSON[authdomain.LoginRequest](c)
	if !ok {
		return
	}
	req.UserAgent = c.Request.UserAgent()
	req.IPAddress = c.ClientIP()

	result, err := s.authsvc.Login(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) Refresh(c *gin.Context) {
	req, ok := bindJSON[authdomain.RefreshRequest](c)
	if !ok {
		return
	}

	tokens, err := s.authsvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

func (s *Server) Logout(c *gin.Context) {
	req, ok := bindJSON[authdomain.RefreshRequest](c)
	if !ok {
		return
	}

	if err := s.authsvc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (s *Server) Me(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": identity})
}
