package server

import "github.com/gin-gonic/gin"

func registerRoutes(router *gin.Engine, s *Server) {
	router.GET("/health", s.health)
	router.GET("/health/db", s.dbHealth)
	router.GET("/db", s.dbHealth)

	router.POST("/agent", s.agent)
	router.POST("/submit", s.submit)
	router.GET("/fetch-jobs", s.fetchJobs)

	profiles := router.Group("/profiles")
	{
		profiles.POST("", s.upsertProfile)
		profiles.GET("/:user_id", s.getProfile)
	}

	router.GET("/users/:user_id/matches", s.listMatches)
}
