package server

import (
	"net/http"

	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
	farmdomain "github.com/agrilink/agrilink/internal/farm/domain"
	"github.com/gin-gonic/gin"
)

// ListFarms returns the caller's farms for farmers and every farm otherwise.
func (s *Server) ListFarms(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var filter farmdomain.FarmFilter
	if identity.Role == authdomain.RoleFarmer {
		ownerID := identity.ID
		filter.OwnerID = &ownerID
	}

	farms, err := s.farmSvc.ListFarms(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, farms)
}

func (s *Server) CreateFarm(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	req, ok := bindJSON[farmdomain.CreateFarmRequest](c)
	if !ok {
		return
	}
	req.OwnerID = identity.ID

	farm, err := s.farmSvc.CreateFarm(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, farm)
}
