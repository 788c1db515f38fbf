package ingestion

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/career-roadmap/internal/fetch"
)

// GitHubBaseURL is the origin profile pages are fetched from
const GitHubBaseURL = "https://github.com"

var digits = regexp.MustCompile(`\d+`)

// GitHubProfile holds the activity figures scraped from a public profile
type GitHubProfile struct {
	Username           string
	URL                string
	Repositories       int
	TotalContributions int
	CurrentStreak      int
	LongestStreak      int
	ActiveDays         int
}

// GitHubUsername returns the user name of a github.com profile URL, or ""
// when the URL is not a profile URL.
func GitHubUsername(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if host != "github.com" {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 1 || parts[0] == "" {
		return ""
	}
	return parts[0]
}

// ScrapeGitHubProfile reads the repository count from the profile page and
// the contribution calendar from the contributions page. A failing
// contributions page leaves the calendar figures at zero.
func ScrapeGitHubProfile(ctx context.Context, client *fetch.Client, baseURL, username string, today time.Time) (*GitHubProfile, error) {
	if baseURL == "" {
		baseURL = GitHubBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	profile := &GitHubProfile{Username: username, URL: baseURL + "/" + username}

	res, err := client.Get(ctx, profile.URL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile page: %w", err)
	}
	counter := doc.Find(`a[href*="tab=repositories"] .Counter`).First().Text()
	profile.Repositories = firstInt(counter)

	res, err = client.Get(ctx, fmt.Sprintf("%s/users/%s/contributions", baseURL, username))
	if err != nil {
		return profile, nil
	}
	doc, err = goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
	if err != nil {
		return profile, nil
	}
	profile.TotalContributions = firstInt(doc.Find("h2.f4").First().Text())

	var days []contributionDay
	doc.Find("td.ContributionCalendar-day").Each(func(_ int, s *goquery.Selection) {
		date, ok := s.Attr("data-date")
		if !ok || date == "" {
			return
		}
		count, _ := strconv.Atoi(s.AttrOr("data-count", "0"))
		days = append(days, contributionDay{date: date, count: count})
	})
	profile.CurrentStreak, profile.LongestStreak, profile.ActiveDays = streaks(days, today.Format("2006-01-02"))
	return profile, nil
}

type contributionDay struct {
	date  string
	count int
}

// streaks computes the current and longest runs of active days and the
// number of active days. An inactive today does not break the current streak.
func streaks(days []contributionDay, today string) (current, longest, active int) {
	sort.Slice(days, func(i, j int) bool { return days[i].date < days[j].date })

	run := 0
	for _, d := range days {
		if d.count > 0 {
			run++
			active++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}

	for i := len(days) - 1; i >= 0; i-- {
		if days[i].count > 0 {
			current++
			continue
		}
		if days[i].date == today {
			continue
		}
		break
	}
	return current, longest, active
}

// Summary renders the profile as the text stored in the documents collection
func (p *GitHubProfile) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "GitHub Profile Analysis for User: %s\n", p.Username)
	fmt.Fprintf(&sb, "Source URL: %s\n", p.URL)
	fmt.Fprintf(&sb, "Total Repositories: %d\n", p.Repositories)
	fmt.Fprintf(&sb, "Total Contributions (Last Year): %d\n", p.TotalContributions)
	fmt.Fprintf(&sb, "Current Streak: %d days\n", p.CurrentStreak)
	fmt.Fprintf(&sb, "Longest Streak: %d days\n", p.LongestStreak)
	fmt.Fprintf(&sb, "Active Days: %d days", p.ActiveDays)
	return sb.String()
}

func firstInt(s string) int {
	n, _ := strconv.Atoi(digits.FindString(strings.ReplaceAll(s, ",", "")))
	return n
}
