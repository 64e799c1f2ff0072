package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Merit/internal/ahp"
)

// MatrixFile is the input of `merit solve`. Either Comparisons or Matrix is
// given; Matrix rows follow the order of Items.
type MatrixFile struct {
	Items []struct {
		ID   int64  `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"items"`
	Comparisons []struct {
		A     int64 `yaml:"a"`
		B     int64 `yaml:"b"`
		Ratio Ratio `yaml:"ratio"`
	} `yaml:"comparisons"`
	Matrix [][]Ratio `yaml:"matrix"`
}

// Ratio accepts a number or a fraction such as "1/3".
type Ratio float64

func (r *Ratio) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseRatio(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*r = Ratio(v)
	return nil
}

// ParseRatio parses "3", "0.2" or "1/5".
func ParseRatio(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return 0, fmt.Errorf("bad ratio %q", s)
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err != nil || d == 0 {
			return 0, fmt.Errorf("bad ratio %q", s)
		}
		v := n / d
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("bad ratio %q", s)
		}
		return v, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("bad ratio %q", s)
	}
	return v, nil
}

type solveOptions struct {
	file    string
	method  string
	missing string
	asJSON  bool
}

func newSolveCmd(root *rootOptions) *cobra.Command {
	opts := &solveOptions{}
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve one comparison matrix from a YAML file",
		Example: `  merit solve --file criteria.yaml
  merit solve --file criteria.yaml --method row_average --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			engineOpts, err := cfg.EngineOptions()
			if err != nil {
				return err
			}
			if opts.method != "" {
				if engineOpts.Method, err = ahp.ParseMethod(opts.method); err != nil {
					return err
				}
			}
			if opts.missing != "" {
				if engineOpts.Missing, err = ahp.ParseMissingPolicy(opts.missing); err != nil {
					return err
				}
			}

			mf, err := loadMatrixFile(opts.file)
			if err != nil {
				return err
			}
			items, res, err := solveFile(mf, engineOpts)
			if err != nil {
				return err
			}
			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return writeSolveTable(cmd.OutOrStdout(), items, res)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "YAML file with items and comparisons or a matrix")
	cmd.Flags().StringVar(&opts.method, "method", "", "eigenvector or row_average (default from config)")
	cmd.Flags().StringVar(&opts.missing, "missing", "", "neutral or reject (default from config)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func loadMatrixFile(path string) (*MatrixFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read matrix file: %w", err)
	}
	var mf MatrixFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse matrix file: %w", err)
	}
	return &mf, nil
}

func solveFile(mf *MatrixFile, opts ahp.Options) ([]ahp.Item, ahp.GroupResult, error) {
	items := make([]ahp.Item, len(mf.Items))
	for i, in := range mf.Items {
		it, err := ahp.NewItem(in.ID, in.Name, 0)
		if err != nil {
			return nil, ahp.GroupResult{}, err
		}
		items[i] = it
	}

	engine := ahp.NewEngine(opts)
	if len(mf.Matrix) == 0 {
		comps := make([]ahp.Comparison, len(mf.Comparisons))
		for i, c := range mf.Comparisons {
			comp, err := ahp.NewComparison(c.A, c.B, float64(c.Ratio))
			if err != nil {
				return nil, ahp.GroupResult{}, err
			}
			comps[i] = comp
		}
		res, err := engine.SolveMatrix(items, comps)
		return items, res, err
	}

	if len(mf.Comparisons) > 0 {
		return nil, ahp.GroupResult{}, fmt.Errorf("give either comparisons or matrix, not both")
	}
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	rows := make([][]float64, len(mf.Matrix))
	for i, row := range mf.Matrix {
		rows[i] = make([]float64, len(row))
		for j, v := range row {
			rows[i][j] = float64(v)
		}
	}
	m, err := ahp.NewMatrixFromRows(ids, rows)
	if err != nil {
		return nil, ahp.GroupResult{}, err
	}
	res, err := ahp.NewSolver(engine.Method()).WithThresholds(engine.Options().Thresholds).Solve(m)
	if err != nil {
		return nil, ahp.GroupResult{}, err
	}
	return items, ahp.GroupResult{Weights: res.WeightsByID(m), Result: res}, nil
}

func writeSolveTable(w io.Writer, items []ahp.Item, res ahp.GroupResult) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Item", "Weight"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(items))
	for _, it := range items {
		data = append(data, []string{
			strconv.FormatInt(it.ID, 10),
			it.Name,
			strconv.FormatFloat(res.Weights[it.ID], 'f', 4, 64),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "method: %s  lambda_max: %.4f  CI: %.4f  RI: %.2f  CR: %.4f\n",
		res.Method, res.LambdaMax, res.CI, res.RI, res.CR); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s: %s\n", res.Consistency, res.Consistency.Advice()); err != nil {
		return err
	}
	if res.Warning != nil {
		if _, err := fmt.Fprintf(w, "warning: %v\n", res.Warning); err != nil {
			return err
		}
	}
	return nil
}
