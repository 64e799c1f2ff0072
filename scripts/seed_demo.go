// seed_demo.go loads a demo school from YAML into a running merit API.
//
// Usage:
//
//	go run scripts/seed_demo.go -file scripts/demo.yaml -api http://localhost:8700 -token secret
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

type namedComparison struct {
	A     string  `yaml:"a"`
	B     string  `yaml:"b"`
	Ratio float64 `yaml:"ratio"`
}

type demoCriterion struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Subcriteria []string          `yaml:"subcriteria"`
	Comparisons []namedComparison `yaml:"comparisons"`
}

type demoTeacher struct {
	Name     string `yaml:"name"`
	NIP      string `yaml:"nip"`
	Position string `yaml:"position"`
	// Scores is keyed by sub-criterion name, or criterion name for criteria
	// without sub-criteria.
	Scores map[string]float64 `yaml:"scores"`
}

type demoFile struct {
	Criteria    []demoCriterion   `yaml:"criteria"`
	Comparisons []namedComparison `yaml:"comparisons"`
	Teachers    []demoTeacher     `yaml:"teachers"`
}

type client struct {
	base     string
	token    string
	assessor string
	http     *http.Client
}

func (c *client) send(method, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, c.base+"/api/v1"+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Assessor-ID", c.assessor)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, e.Error)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

type created struct {
	ID int64 `json:"id"`
}

type comparisonBody struct {
	A     int64   `json:"a"`
	B     int64   `json:"b"`
	Ratio float64 `json:"ratio"`
}

func resolve(ids map[string]int64, comps []namedComparison) ([]comparisonBody, error) {
	out := make([]comparisonBody, 0, len(comps))
	for _, c := range comps {
		a, ok := ids[c.A]
		if !ok {
			return nil, fmt.Errorf("unknown name %q", c.A)
		}
		b, ok := ids[c.B]
		if !ok {
			return nil, fmt.Errorf("unknown name %q", c.B)
		}
		out = append(out, comparisonBody{A: a, B: b, Ratio: c.Ratio})
	}
	return out, nil
}

func main() {
	file := flag.String("file", "scripts/demo.yaml", "path to the demo YAML file")
	apiURL := flag.String("api", "http://localhost:8700", "merit API base URL")
	token := flag.String("token", os.Getenv("MERIT_ADMIN_TOKEN"), "admin bearer token")
	assessor := flag.String("assessor", "seed", "X-Assessor-ID header value")
	dryRun := flag.Bool("dry-run", false, "print what would be created without posting")
	flag.Parse()

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}
	var demo demoFile
	if err := yaml.Unmarshal(data, &demo); err != nil {
		log.Fatalf("parse %s: %v", *file, err)
	}
	log.Printf("parsed %d criteria and %d teachers from %s", len(demo.Criteria), len(demo.Teachers), *file)

	if *dryRun {
		for _, c := range demo.Criteria {
			fmt.Printf("criterion %s (%d sub-criteria, %d comparisons)\n", c.Name, len(c.Subcriteria), len(c.Comparisons))
		}
		for _, t := range demo.Teachers {
			fmt.Printf("teacher %s (%d scores)\n", t.Name, len(t.Scores))
		}
		return
	}

	c := &client{base: *apiURL, token: *token, assessor: *assessor, http: &http.Client{}}

	criterionIDs := map[string]int64{}
	// Leaf ids by name: sub-criteria, plus criteria that have none.
	type leaf struct{ criterion, subcriterion int64 }
	leaves := map[string]leaf{}

	for _, dc := range demo.Criteria {
		var cr created
		if err := c.send(http.MethodPost, "/criteria", map[string]string{"name": dc.Name, "description": dc.Description}, &cr); err != nil {
			log.Fatalf("create criterion %q: %v", dc.Name, err)
		}
		criterionIDs[dc.Name] = cr.ID
		if len(dc.Subcriteria) == 0 {
			leaves[dc.Name] = leaf{criterion: cr.ID}
		}

		subIDs := map[string]int64{}
		for _, name := range dc.Subcriteria {
			var sc created
			if err := c.send(http.MethodPost, fmt.Sprintf("/criteria/%d/subcriteria", cr.ID), map[string]string{"name": name}, &sc); err != nil {
				log.Fatalf("create sub-criterion %q: %v", name, err)
			}
			subIDs[name] = sc.ID
			leaves[name] = leaf{subcriterion: sc.ID}
		}
		if len(dc.Comparisons) > 0 {
			comps, err := resolve(subIDs, dc.Comparisons)
			if err != nil {
				log.Fatalf("criterion %q: %v", dc.Name, err)
			}
			if err := c.send(http.MethodPut, fmt.Sprintf("/criteria/%d/comparisons", cr.ID), map[string]any{"comparisons": comps}, nil); err != nil {
				log.Fatalf("comparisons for %q: %v", dc.Name, err)
			}
		}
	}

	if len(demo.Comparisons) > 0 {
		comps, err := resolve(criterionIDs, demo.Comparisons)
		if err != nil {
			log.Fatalf("criteria comparisons: %v", err)
		}
		if err := c.send(http.MethodPut, "/comparisons/criteria", map[string]any{"comparisons": comps}, nil); err != nil {
			log.Fatalf("criteria comparisons: %v", err)
		}
	}

	scored := 0
	for _, dt := range demo.Teachers {
		var t created
		body := map[string]string{"name": dt.Name, "nip": dt.NIP, "position": dt.Position}
		if err := c.send(http.MethodPost, "/teachers", body, &t); err != nil {
			log.Fatalf("create teacher %q: %v", dt.Name, err)
		}

		scores := make([]map[string]any, 0, len(dt.Scores))
		for name, value := range dt.Scores {
			l, ok := leaves[name]
			if !ok {
				log.Fatalf("teacher %q: unknown leaf %q", dt.Name, name)
			}
			s := map[string]any{"teacher_id": t.ID, "value": value}
			if l.subcriterion != 0 {
				s["subcriterion_id"] = l.subcriterion
			} else {
				s["criterion_id"] = l.criterion
			}
			scores = append(scores, s)
		}
		if len(scores) == 0 {
			continue
		}
		if err := c.send(http.MethodPut, "/scores", map[string]any{"scores": scores}, nil); err != nil {
			log.Fatalf("scores for %q: %v", dt.Name, err)
		}
		scored += len(scores)
	}

	var run struct {
		RunID string `json:"run_id"`
	}
	if err := c.send(http.MethodPost, "/rankings", struct{}{}, &run); err != nil {
		log.Fatalf("recompute ranking: %v", err)
	}
	log.Printf("done: %d criteria, %d teachers, %d scores, run %s", len(criterionIDs), len(demo.Teachers), scored, run.RunID)
}
