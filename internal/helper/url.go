package helper

import (
	"net/url"
	"strings"
)

const shortHashLen = 7

// NormalizeRemoteURL turns a git remote URL into a browsable https URL.
// scp-style (git@host:owner/repo.git) and ssh:// remotes are rewritten;
// anything unrecognized is returned without its .git suffix.
func NormalizeRemoteURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")

	if !strings.Contains(s, "://") {
		// scp-like: [user@]host:path
		if at := strings.Index(s, "@"); at >= 0 {
			s = s[at+1:]
		}
		if colon := strings.Index(s, ":"); colon > 0 {
			return "https://" + s[:colon] + "/" + strings.TrimPrefix(s[colon+1:], "/")
		}
		return s
	}

	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	switch u.Scheme {
	case "ssh", "git", "git+ssh", "ssh+git":
		return "https://" + u.Hostname() + u.Path
	case "http", "https":
		u.User = nil
		return u.String()
	default:
		return s
	}
}

// RepoSlug returns the owner/repo part of a normalized URL, falling back to
// the URL itself.
func RepoSlug(repoURL string) string {
	trimmed := strings.Trim(repoURL, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || !strings.Contains(trimmed, "/") {
		return repoURL
	}
	owner, name := parts[len(parts)-2], parts[len(parts)-1]
	if owner == "" || strings.HasSuffix(owner, ":") {
		return name
	}
	return owner + "/" + name
}

// CommitURL links to a commit on the hosting site.
func CommitURL(repoURL, hash string) string {
	if repoURL == "" || hash == "" {
		return ""
	}
	return strings.TrimSuffix(repoURL, "/") + "/commit/" + hash
}

// ShortHash abbreviates a commit hash.
func ShortHash(hash string) string {
	if len(hash) > shortHashLen {
		return hash[:shortHashLen]
	}
	return hash
}
