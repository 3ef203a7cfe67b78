// Command debug_merge runs the merge engine over JSON files and prints the
// outcome, without touching any store.
//
//	debug_merge -kind users -local local.json -remote remote.json -deleted deleted.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"tenant-sync/core/entity"
	"tenant-sync/core/reconcile"
	"tenant-sync/core/tombstone"
)

func main() {
	kindName := flag.String("kind", "users", "Entity kind")
	localPath := flag.String("local", "", "JSON array of local entities")
	remotePath := flag.String("remote", "", "JSON array of remote entities")
	deletedPath := flag.String("deleted", "", "JSON array of deleted identities")
	showEntities := flag.Bool("entities", false, "Print the merged entities")
	flag.Parse()

	kind, err := entity.Lookup(*kindName)
	if err != nil {
		log.Fatal(err)
	}

	local, err := readEntities(*localPath)
	if err != nil {
		log.Fatal(err)
	}
	remote, err := readEntities(*remotePath)
	if err != nil {
		log.Fatal(err)
	}

	deleted := tombstone.NewSet()
	if *deletedPath != "" {
		raw, err := os.ReadFile(*deletedPath)
		if err != nil {
			log.Fatal(err)
		}
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			log.Fatalf("invalid tombstone file: %v", err)
		}
		for _, id := range ids {
			deleted.Add(kind.Normalize(id))
		}
	}

	res := reconcile.Merge(kind, local, remote, deleted)

	fmt.Println("=== Merge Report ===")
	fmt.Printf("Kind:           %s\n", res.Report.Kind)
	fmt.Printf("Merged:         %d\n", res.Report.Total)
	fmt.Printf("Local only:     %d\n", res.Report.LocalOnly)
	fmt.Printf("Remote only:    %d\n", res.Report.RemoteOnly)
	fmt.Printf("Local wins:     %d\n", res.Report.LocalWins)
	fmt.Printf("Remote wins:    %d\n", res.Report.RemoteWins)
	fmt.Printf("Tombstoned:     %d\n", res.Report.Tombstoned)
	fmt.Printf("Invalid:        %d\n", res.Report.Invalid)
	fmt.Printf("Duplicates:     %d\n", res.Report.Duplicates)

	if len(res.Issues) > 0 {
		fmt.Println("\n=== Issues ===")
		for _, issue := range res.Issues {
			fmt.Printf("%s[%d] %s: %s\n", issue.Side, issue.Index, issue.Identity, issue.Reason)
		}
	}

	if *showEntities {
		fmt.Println("\n=== Entities ===")
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Entities); err != nil {
			log.Fatal(err)
		}
	}
}

func readEntities(path string) ([]entity.Entity, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entities, err := entity.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid entity file %s: %w", path, err)
	}
	return entities, nil
}
