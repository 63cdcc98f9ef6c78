package tool

import "github.com/gin-gonic/gin"

// FastReturnError builds the error body used by every API handler.
func FastReturnError(message string) gin.H {
	return gin.H{"error": message}
}

// FastReturnKindError adds the machine-readable error kind.
func FastReturnKindError(message, kind string) gin.H {
	return gin.H{"error": message, "kind": kind}
}
