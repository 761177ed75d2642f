package services

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"
)

const roleCacheTTL = 5 * time.Minute

type roleCacheEntry struct {
	roles     []string
	fetchedAt time.Time
}

var roleCache = struct {
	sync.Mutex
	entries map[string]roleCacheEntry
}{entries: make(map[string]roleCacheEntry)}

var roleHTTPClient = &http.Client{Timeout: 5 * time.Second}

// InvalidateRoleCache drops a user's cached management-API roles, used
// when a webhook tells us they changed.
func InvalidateRoleCache(sub string) {
	roleCache.Lock()
	delete(roleCache.entries, sub)
	roleCache.Unlock()
}

// LookupExternalRoles asks the identity provider's management API for a
// user's roles. Failures degrade to nil: the caller falls back to the
// stored role. Results are cached for a few minutes since this runs on
// the request path.
func LookupExternalRoles(sub string) []string {
	base := os.Getenv("MGMT_API_URL")
	if base == "" || sub == "" {
		return nil
	}

	roleCache.Lock()
	if entry, ok := roleCache.entries[sub]; ok && time.Since(entry.fetchedAt) < roleCacheTTL {
		roleCache.Unlock()
		return entry.roles
	}
	roleCache.Unlock()

	req, err := http.NewRequest(http.MethodGet, base+"/users/"+url.PathEscape(sub)+"/roles", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+os.Getenv("MGMT_API_TOKEN"))

	resp, err := roleHTTPClient.Do(req)
	if err != nil {
		log.Printf("Management API role lookup failed for %s: %v", sub, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Management API role lookup for %s returned %d", sub, resp.StatusCode)
		return nil
	}

	var payload []struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil
	}

	roles := make([]string, 0, len(payload))
	for _, r := range payload {
		roles = append(roles, r.Name)
	}

	roleCache.Lock()
	roleCache.entries[sub] = roleCacheEntry{roles: roles, fetchedAt: time.Now()}
	roleCache.Unlock()

	return roles
}
