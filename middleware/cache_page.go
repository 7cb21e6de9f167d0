package middleware

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/utils"
)

// IndexCachePrefix namespaces cached index pages; post writes invalidate it.
const IndexCachePrefix = "cache:page:index:"

type bodyCaptureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CachePage serves successful GET responses from Redis for ttl, keyed by path and
// page number. Other query parameters do not create entries. Without Redis it is a pass-through.
func CachePage(prefix string, ttl time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}
		key := pageCacheKey(prefix, ctx)
		if b, ok := utils.CacheGetBytes(key); ok {
			ctx.Header("X-Cache", "HIT")
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
			ctx.Abort()
			return
		}

		w := bodyCaptureWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = w
		ctx.Next()

		if w.Status() == http.StatusOK && w.body.Len() > 0 {
			utils.CacheSetBytes(key, w.body.Bytes(), ttl)
		}
	}
}

func pageCacheKey(prefix string, ctx *gin.Context) string {
	return prefix + ctx.Request.URL.Path + "?page=" + strconv.Itoa(utils.PageNumber(ctx.Query("page")))
}
