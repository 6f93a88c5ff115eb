package routes

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"

	"hrms-backend/shared/config"
)

// Upstream names
const (
	ServiceRBAC         = "rbac"
	ServiceEmployees    = "employees"
	ServiceAttendance   = "attendance"
	ServicePayroll      = "payroll"
	ServiceOrganization = "organization"
	ServiceDevices      = "devices"
)

// ServiceURLs returns upstream URLs from configuration
func ServiceURLs(cfg *config.Config) map[string]string {
	return map[string]string{
		ServiceRBAC:         cfg.RBACServiceURL,
		ServiceEmployees:    cfg.EmployeeServiceURL,
		ServiceAttendance:   cfg.AttendanceURL,
		ServicePayroll:      cfg.PayrollURL,
		ServiceOrganization: cfg.OrganizationURL,
		ServiceDevices:      cfg.DeviceServiceURL,
	}
}

// Proxy holds one reverse proxy per upstream
type Proxy struct {
	proxies map[string]*httputil.ReverseProxy
}

// NewProxy parses every upstream URL once
func NewProxy(serviceURLs map[string]string) (*Proxy, error) {
	p := &Proxy{proxies: make(map[string]*httputil.ReverseProxy, len(serviceURLs))}

	for name, raw := range serviceURLs {
		target, err := url.Parse(raw)
		if err != nil || target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("invalid URL for service %s: %q", name, raw)
		}

		proxy := httputil.NewSingleHostReverseProxy(target)
		proxy.ErrorHandler = upstreamErrorHandler(name)
		p.proxies[name] = proxy
	}
	return p, nil
}

func upstreamErrorHandler(service string) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("❌ Proxy to %s failed for %s %s: %v", service, r.Method, r.URL.Path, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(gin.H{
			"error":   "Service unavailable",
			"service": service,
		})
	}
}

// ProxyToService forwards the request to the named upstream
func (p *Proxy) ProxyToService(serviceName string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		proxy, exists := p.proxies[serviceName]
		if !exists {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Service not found", "service": serviceName})
			return
		}

		proxy.ServeHTTP(ctx.Writer, ctx.Request)
	}
}
