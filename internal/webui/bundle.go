// Package webui serves the admin dashboard single page application.
package webui

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// dist embeds the built dashboard assets.
//
//go:embed dist/*
var dist embed.FS

// Bundle exposes dashboard assets for serving.
type Bundle struct {
	DistFS    fs.FS  // Root dist filesystem.
	IndexHTML []byte // Raw index HTML content.
}

// Load returns the dashboard bundle from dir, or the embedded bundle when dir is empty.
func Load(dir string) (Bundle, error) {
	var distFS fs.FS
	if strings.TrimSpace(dir) != "" {
		distFS = os.DirFS(dir)
	} else {
		sub, errSub := fs.Sub(dist, "dist")
		if errSub != nil {
			return Bundle{}, errSub
		}
		distFS = sub
	}
	indexHTML, errReadFile := fs.ReadFile(distFS, "index.html")
	if errReadFile != nil {
		return Bundle{}, errReadFile
	}
	return Bundle{DistFS: distFS, IndexHTML: indexHTML}, nil
}

// Handler serves files under prefix from the bundle and falls back to index.html for client routes.
func (b Bundle) Handler(prefix string) gin.HandlerFunc {
	fileServer := http.StripPrefix(prefix, http.FileServer(http.FS(b.DistFS)))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusNotFound)
			return
		}
		cleanedPath := path.Clean("/" + strings.TrimPrefix(c.Request.URL.Path, prefix))
		filePath := strings.TrimPrefix(cleanedPath, "/")
		if filePath != "" {
			info, errStat := fs.Stat(b.DistFS, filePath)
			if errStat == nil && !info.IsDir() {
				fileServer.ServeHTTP(c.Writer, c.Request)
				return
			}
			if strings.HasPrefix(filePath, "assets/") || strings.Contains(path.Base(filePath), ".") {
				c.Status(http.StatusNotFound)
				return
			}
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", b.IndexHTML)
	}
}
