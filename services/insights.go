package services

import (
	"fmt"
	"sort"
	"strings"

	"venue-crawler/models"
	"venue-crawler/utils"
)

const topRatedCount = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(sites []models.Site) *models.InsightReport {
	report := &models.InsightReport{
		SitesByLocation: make(map[string]int),
	}

	if len(sites) == 0 {
		return report
	}

	report.TotalSites = len(sites)

	var rated []models.Site
	var ratingTotal float64

	for i, site := range sites {
		report.TotalReviews += site.Reviews
		if site.Rating > 0 {
			rated = append(rated, site)
			ratingTotal += site.Rating
		}
		if site.Location != "" {
			report.SitesByLocation[site.Location]++
		}
		if site.Reviews > 0 && (report.MostReviewed == nil || site.Reviews > report.MostReviewed.Reviews) {
			report.MostReviewed = &sites[i]
		}
	}

	// Average over rated sites only; unrated venues report 0.
	if len(rated) > 0 {
		report.AverageRating = round2(ratingTotal / float64(len(rated)))
	}

	// Ties on rating go to the site with more reviews.
	sort.SliceStable(rated, func(i, j int) bool {
		if rated[i].Rating != rated[j].Rating {
			return rated[i].Rating > rated[j].Rating
		}
		return rated[i].Reviews > rated[j].Reviews
	})
	if len(rated) > topRatedCount {
		rated = rated[:topRatedCount]
	}
	report.TopRated = rated

	s.logger.Debug("[insights] %d sites, %d rated, %d locations",
		report.TotalSites, len(rated), len(report.SitesByLocation))
	return report
}

func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 VENUE CRAWL SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Sites collected : \033[1m%d\033[0m\n", r.TotalSites)
	fmt.Printf("  Total reviews   : \033[1m%d\033[0m\n", r.TotalReviews)
	if r.AverageRating > 0 {
		fmt.Printf("  Average rating  : \033[1;32m%.2f ★\033[0m\n", r.AverageRating)
	} else {
		fmt.Printf("  Average rating  : no rating data\n")
	}
	fmt.Println()

	if r.MostReviewed != nil {
		fmt.Printf("\033[1;33m  Most Reviewed Site\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(r.MostReviewed.Name, 50))
		fmt.Printf("  Location : %s\n", r.MostReviewed.Location)
		fmt.Printf("  Reviews  : \033[1m%d\033[0m\n", r.MostReviewed.Reviews)
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Top %d Highest Rated Sites\033[0m\n", topRatedCount)
	fmt.Printf("  %s\n", thin)
	if len(r.TopRated) == 0 {
		fmt.Printf("  No rated sites found\n")
	} else {
		for i, site := range r.TopRated {
			fmt.Printf("  \033[1m%d.\033[0m %-40s \033[1;32m%.2f ★\033[0m\n",
				i+1, truncate(site.Name, 38), site.Rating)
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Sites by Location\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.SitesByLocation) == 0 {
		fmt.Printf("  No location data\n")
	} else {
		type locCount struct {
			loc   string
			count int
		}
		var locs []locCount
		for loc, cnt := range r.SitesByLocation {
			locs = append(locs, locCount{loc, cnt})
		}
		sort.Slice(locs, func(i, j int) bool {
			if locs[i].count != locs[j].count {
				return locs[i].count > locs[j].count
			}
			return locs[i].loc < locs[j].loc
		})
		for _, lc := range locs {
			bar := strings.Repeat("█", lc.count)
			fmt.Printf("  %-30s %s (%d)\n", truncate(lc.loc, 28), bar, lc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
