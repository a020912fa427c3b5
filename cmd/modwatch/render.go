package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/modwatch/modwatch/tracker"
)

func renderQuickSummary(summary []tracker.QuickSummary) string {
	var b strings.Builder
	b.WriteString("\n### Quick Summary\n\n")
	b.WriteString("| Bot | Moderated Communities | # Accounts | Personal Namespaces |\n")
	b.WriteString("|-----|------------|------------|----------|\n")
	for _, row := range summary {
		fmt.Fprintf(&b, "| **u/%s** | **%d** | %d | %d |\n",
			row.Bot, row.Communities, row.Accounts, row.PersonalNamespaces)
	}
	return b.String()
}

func renderChanges(changes []tracker.ChangeRecord) string {
	var b strings.Builder
	b.WriteString("\n### Specific Changes\n")
	for _, rec := range changes {
		fmt.Fprintf(&b, "\n* Changes for u/%s\n", rec.Bot)
		if len(rec.Added) > 0 {
			fmt.Fprintf(&b, "    * Additions: r/%s\n", strings.Join(rec.Added, ", r/"))
		}
		if len(rec.Removed) > 0 {
			fmt.Fprintf(&b, "    * Removals: r/%s\n", strings.Join(rec.Removed, ", r/"))
			for _, name := range rec.Removed {
				switch rec.RemovalReasons[name] {
				case tracker.RemovalPrivate:
					fmt.Fprintf(&b, "        * Note: r/%s has gone private.\n", name)
				case tracker.RemovalBanned:
					fmt.Fprintf(&b, "        * Note: r/%s has been banned.\n", name)
				}
			}
		}
	}
	return b.String()
}

func renderFinalTable(snapshots map[string]tracker.BotSnapshot) string {
	bots := make([]string, 0, len(snapshots))
	for bot := range snapshots {
		bots = append(bots, bot)
	}
	sort.Strings(bots)

	var b strings.Builder
	b.WriteString("\n### Final Data Table\n\n")
	b.WriteString("| Bot Name | Age (Years) | Total Moderated Communities | NSFW " +
		"| % NSFW | Total Subscribers | Average Subscribers / Community |" +
		" Total Moderators | Personal Namespaces |\n")
	b.WriteString("|----------|------|------|-------|------|---------|------|------|-----|\n")

	for _, bot := range bots {
		snap := snapshots[bot]
		var age float64
		if !snap.OldestAccount.IsZero() {
			age = time.Since(snap.OldestAccount).Hours() / 24 / 365
		}
		var percentNSFW, avgSubscribers float64
		if snap.TotalCount > 0 {
			percentNSFW = float64(snap.NSFWCount) / float64(snap.TotalCount)
			avgSubscribers = float64(snap.Subscribers) / float64(snap.TotalCount)
		}
		fmt.Fprintf(&b, "| u/%s | %.2f | %d | %d | %.2f%% | %d | %d | %d | %d |\n",
			bot, age, snap.TotalCount, snap.NSFWCount, percentNSFW*100,
			snap.Subscribers, int64(avgSubscribers), snap.ModeratorCount,
			len(snap.PersonalNamespaces))
	}
	return b.String()
}
