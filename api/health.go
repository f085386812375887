package api

import (
	"net/http"
	"os"
	goruntime "runtime"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/process"
)

// health reports liveness plus a few process stats for dashboards.
func (s *Server) health(c *gin.Context) {
	report := gin.H{
		"status":     "ok",
		"goroutines": goruntime.NumGoroutine(),
	}

	p, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			report["rss_bytes"] = mi.RSS
		}
		if cpu, err := p.CPUPercent(); err == nil {
			report["cpu_percent"] = cpu
		}
	}

	c.JSON(http.StatusOK, report)
}
