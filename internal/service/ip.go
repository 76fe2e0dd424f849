package service

import (
	"net"
	"net/http"
	"strings"
)

// UnknownIP - сентинел для запросов, из которых адрес извлечь не удалось.
const UnknownIP = "unknown"

// ClientIP извлекает адрес клиента: первый элемент X-Forwarded-For,
// затем X-Real-IP, затем RemoteAddr. Если ничего нет - "unknown".
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}

	if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
		return xr
	}

	if r.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return host
	}

	return UnknownIP
}

// isPublicIP сообщает, имеет ли смысл внешний геозапрос для адреса.
// Loopback, приватные и link-local диапазоны внешний сервис всё равно
// не разрешит.
func isPublicIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() || parsed.IsUnspecified() {
		return false
	}
	return true
}
