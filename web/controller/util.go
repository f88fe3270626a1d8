package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dispatchhub/dispatch/logger"
	"github.com/dispatchhub/dispatch/web/entity"
	"github.com/dispatchhub/dispatch/web/locale"
	"github.com/dispatchhub/dispatch/web/service"

	"github.com/gin-gonic/gin"
)

// jsonObj sends a successful JSON response with an object.
func jsonObj(c *gin.Context, obj any) {
	c.JSON(http.StatusOK, entity.Msg{Success: true, Obj: obj})
}

// jsonMsg sends a successful JSON response with a message.
func jsonMsg(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, entity.Msg{Success: true, Msg: msg})
}

// pureJsonMsg sends a pure JSON message response with custom status code.
func pureJsonMsg(c *gin.Context, statusCode int, success bool, msg string) {
	c.JSON(statusCode, entity.Msg{
		Success: success,
		Msg:     msg,
	})
}

// jsonError maps err to a status code and a localized envelope.
func jsonError(c *gin.Context, err error) {
	var (
		verr     *entity.ValidationError
		conflict *service.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		fields := locale.LocalizeFieldErrors(locale.FromContext(c), verr.Fields)
		msg := I18nWeb(c, entity.MsgEmptyUpdate)
		if !verr.Has(entity.KindEmptyUpdate) {
			msg = fields[0].Message
			if fields[0].Field != "" {
				msg = fields[0].Field + ": " + msg
			}
		}
		c.JSON(http.StatusUnprocessableEntity, entity.Msg{Success: false, Msg: msg, Obj: fields})
	case errors.As(err, &conflict):
		pureJsonMsg(c, http.StatusConflict, false, I18nWeb(c, "errors.conflict", "Param=="+conflict.Field))
	case errors.Is(err, service.ErrNotFound):
		pureJsonMsg(c, http.StatusNotFound, false, I18nWeb(c, "errors.notFound"))
	default:
		logger.Warning("request failed:", err)
		pureJsonMsg(c, http.StatusInternalServerError, false, I18nWeb(c, "errors.internal"))
	}
}

// paramID parses the :id path segment. A non-numeric id cannot exist, so it
// is reported as not found.
func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		pureJsonMsg(c, http.StatusNotFound, false, I18nWeb(c, "errors.notFound"))
		return 0, false
	}
	return id, true
}

func rawBody(c *gin.Context) ([]byte, bool) {
	data, err := c.GetRawData()
	if err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, err.Error())
		return nil, false
	}
	return data, true
}
