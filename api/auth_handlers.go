package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	token, err := s.auth.Register(req.Username, req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	s.setTokenCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{"access_token": token, "token_type": "bearer"})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	token, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	s.setTokenCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (s *Server) setTokenCookie(c *gin.Context, token string) {
	c.SetCookie("access_token", token, int(s.opts.TokenTTL.Seconds()), "/", "", false, true)
}
