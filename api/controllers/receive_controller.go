package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/qrdrop/tool"
	"github.com/moyoez/qrdrop/transfer"
)

// decoded QR text never exceeds a few KB
const maxDecodedSize = 64 << 10

type ReceiveController struct {
	receiver *transfer.Receiver
}

func NewReceiveController(receiver *transfer.Receiver) *ReceiveController {
	return &ReceiveController{receiver: receiver}
}

// HandleReceive handles POST /receive with the decoded QR text as body.
func (ctrl *ReceiveController) HandleReceive(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxDecodedSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Failed to read request body"))
		return
	}

	res := ctrl.receiver.OnDecoded(c.Request.Context(), tool.BytesToString(body))
	switch {
	case errors.Is(res.Err, transfer.ErrBusy):
		c.JSON(http.StatusConflict, tool.FastReturnError("Receiver is busy"))
	case res.State == transfer.StateDone:
		c.JSON(http.StatusOK, gin.H{
			"state":   res.State.String(),
			"message": res.Message(),
			"data":    newFileItem(res.Record),
		})
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"state": res.State.String(),
			"error": res.Message(),
			"kind":  res.Kind().String(),
		})
	}
}

// HandleReset handles POST /receive/reset.
func (ctrl *ReceiveController) HandleReset(c *gin.Context) {
	if !ctrl.receiver.Reset() {
		c.JSON(http.StatusConflict, tool.FastReturnError("Receiver is not done"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": ctrl.receiver.State().String()})
}

// HandleState handles GET /receive.
func (ctrl *ReceiveController) HandleState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": ctrl.receiver.State().String()})
}
