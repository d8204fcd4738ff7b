package dispatcher

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/platform/platformerr"
)

// RemovalExecutor issues the removal-chain mutations (ban, kick, timeout)
// over raw REST instead of the SDK, keeping the attacker-removal path off the
// SDK's serialized request queue.
type RemovalExecutor struct {
	pool        *HTTPPool
	rateLimiter *RateLimitMonitor
	token       string
	baseURL     string
}

func NewRemovalExecutor(pool *HTTPPool, rateLimiter *RateLimitMonitor, token, baseURL string) *RemovalExecutor {
	return &RemovalExecutor{
		pool:        pool,
		rateLimiter: rateLimiter,
		token:       token,
		baseURL:     baseURL,
	}
}

func (re *RemovalExecutor) Ban(guildID, userID, reason string) error {
	url := fmt.Sprintf("%s/guilds/%s/bans/%s", re.baseURL, guildID, userID)
	body, _ := json.Marshal(map[string]interface{}{"delete_message_seconds": 0})
	return re.do("ban", fasthttp.MethodPut, url, guildID, reason, body)
}

func (re *RemovalExecutor) Kick(guildID, userID, reason string) error {
	url := fmt.Sprintf("%s/guilds/%s/members/%s", re.baseURL, guildID, userID)
	return re.do("kick", fasthttp.MethodDelete, url, guildID, reason, nil)
}

func (re *RemovalExecutor) Timeout(guildID, userID string, until time.Time, reason string) error {
	url := fmt.Sprintf("%s/guilds/%s/members/%s", re.baseURL, guildID, userID)
	body, _ := json.Marshal(map[string]interface{}{
		"communication_disabled_until": until.UTC().Format(time.RFC3339),
	})
	return re.do("timeout", fasthttp.MethodPatch, url, guildID, reason, body)
}

func (re *RemovalExecutor) do(route, method, url, guildID, reason string, body []byte) error {
	if !re.rateLimiter.CanExecute(route, guildID) {
		return &platformerr.TransientError{Op: route, Err: fmt.Errorf("rate limited")}
	}

	start := time.Now()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", "Bot "+re.token)
	req.Header.Set("X-Audit-Log-Reason", reason)
	req.Header.Set("Connection", "keep-alive")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.SetBody(body)
	}

	client := re.pool.GetClient()
	if err := client.DoTimeout(req, resp, 2*time.Second); err != nil {
		return &platformerr.TransientError{Op: route, Err: err}
	}

	re.rateLimiter.UpdateFromResponse(resp, route, guildID)

	status := resp.StatusCode()
	elapsed := time.Since(start).Microseconds()

	if err := platformerr.ClassifyStatus(route, status); err != nil {
		logging.Warn("[DISPATCH] %s failed: guild=%s status=%d time=%dµs", route, guildID, status, elapsed)
		return err
	}

	logging.Info("[DISPATCH] %s executed: guild=%s time=%dµs", route, guildID, elapsed)
	return nil
}
