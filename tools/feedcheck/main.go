// feedcheck validates a downloaded feed file and prints its aggregate stats.
// Useful for checking a feed snapshot before pointing chartgen at it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/rben01/covid19-sub000/internal/feed"
	"github.com/rben01/covid19-sub000/internal/models"
)

func main() {
	dataPath := flag.String("data", "", "path to the covid data feed json")
	geoPath := flag.String("geo", "", "optional path to the boundary feed json")
	flag.Parse()

	if *dataPath == "" {
		log.Fatal("usage: feedcheck -data <covid_data-*.json> [-geo <geo_data-*.json>]")
	}

	datasets, err := feed.LoadDatasetsFile(context.Background(), *dataPath)
	if err != nil {
		log.Fatalf("data feed invalid: %v", err)
	}

	scopes := make([]string, 0, len(datasets))
	for scope := range datasets {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)

	for _, scope := range scopes {
		ds := datasets[scope]
		fmt.Printf("scope %q: %d regions, %d days", scope, len(ds.Regions), ds.Days())
		if !ds.Agg.FirstDate.IsZero() {
			fmt.Printf(" (%s to %s)",
				ds.Agg.FirstDate.Format("2006-01-02"),
				ds.Agg.LastDate.Format("2006-01-02"))
		}
		fmt.Println()

		for _, k := range models.AllSeriesKeys() {
			r := ds.Agg.Net[k]
			fmt.Printf("  %-18s max %-14g min nonzero %-10g outbreak cutoff %g\n",
				k.FeedKey(), r.Max, r.MinNonzero, ds.Agg.Thresholds[k])
		}
	}

	if *geoPath != "" {
		boundaries, err := feed.LoadBoundariesFile(*geoPath)
		if err != nil {
			log.Fatalf("boundary feed invalid: %v", err)
		}
		for _, scope := range scopes {
			fc := boundaries.Scope(scope)
			if fc == nil {
				fmt.Printf("boundaries: scope %q missing\n", scope)
				continue
			}
			matched := 0
			for _, f := range fc.Features {
				if code, _ := f.Properties["code"].(string); code != "" {
					if _, ok := datasets[scope].Regions[code]; ok {
						matched++
					}
				}
			}
			fmt.Printf("boundaries: scope %q has %d features, %d match data regions\n",
				scope, len(fc.Features), matched)
		}
	}

	fmt.Println("feed ok")
}
