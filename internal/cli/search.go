package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"medilocator/internal/client"
)

type searchFlags struct {
	letter   bool
	symptoms bool
	plans    bool
	lookup   bool
	watch    bool
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	f := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search [term...]",
		Short: "Busca medicamentos o planes en una API en ejecución (API_BASE_URL)",
		Long: `Busca por nombre (default), primera letra (--letter) o síntomas (--symptoms).
Con --plans busca planes en lugar de medicamentos; --lookup busca planes cuyo
nombre o síntoma sea exactamente el término.
Con --watch lee términos de stdin, uno por línea, como una caja de búsqueda.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.validate(); err != nil {
				return err
			}

			cfg, log, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			c, err := client.New(cfg.APIBaseURL, cfg.HTTPWriteTimeout, log)
			if err != nil {
				return err
			}

			run := f.runner(c)
			out := cmd.OutOrStdout()

			if f.watch {
				return watch(cmd.Context(), cmd.InOrStdin(), out, run, cfg.SearchDebounce, cfg.HTTPWriteTimeout)
			}

			res, err := run(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			res.print(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&f.letter, "letter", false, "filtrar por primera letra")
	cmd.Flags().BoolVar(&f.symptoms, "symptoms", false, "buscar por síntomas separados por coma")
	cmd.Flags().BoolVar(&f.plans, "plans", false, "buscar planes de tratamiento")
	cmd.Flags().BoolVar(&f.lookup, "lookup", false, "planes con nombre o síntoma exacto")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "leer términos de stdin con debounce")

	return cmd
}

func (f *searchFlags) validate() error {
	if f.letter && (f.symptoms || f.plans || f.lookup) {
		return errors.New("--letter only applies to medicine name search")
	}
	if f.lookup && f.symptoms {
		return errors.New("--lookup and --symptoms are mutually exclusive")
	}
	return nil
}

// output es el resultado ya listo para imprimir, sea de medicamentos o planes.
type output struct {
	issued    bool
	medicines []client.Medicine
	plans     []client.Plan
}

type runner func(ctx context.Context, term string) (output, error)

func (f *searchFlags) runner(c *client.Client) runner {
	medicines := func(res client.SearchResult[client.Medicine], err error) (output, error) {
		return output{issued: res.QueryIssued, medicines: res.Results}, err
	}
	plans := func(res client.SearchResult[client.Plan], err error) (output, error) {
		return output{issued: res.QueryIssued, plans: res.Results}, err
	}

	return func(ctx context.Context, term string) (output, error) {
		switch {
		case f.lookup:
			return plans(c.LookupPlans(ctx, term))
		case f.plans && f.symptoms:
			return plans(c.SearchPlanSymptoms(ctx, strings.Split(term, ",")))
		case f.plans:
			return plans(c.SearchPlans(ctx, term))
		case f.symptoms:
			return medicines(c.SearchSymptoms(ctx, strings.Split(term, ",")))
		case f.letter:
			return medicines(c.MedicinesByLetter(ctx, term))
		default:
			return medicines(c.SearchMedicines(ctx, term))
		}
	}
}

func (o output) print(w io.Writer) {
	if !o.issued {
		fmt.Fprintln(w, "(empty search)")
		return
	}
	if len(o.medicines) == 0 && len(o.plans) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	for _, m := range o.medicines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n",
			m.Name, locationLabel(m.Location), m.Type, m.Price, strings.Join(m.Symptoms, ", "))
	}
	for _, p := range o.plans {
		names := make([]string, 0, len(p.Medicines))
		for _, m := range p.Medicines {
			names = append(names, m.Name+" ("+locationLabel(m.Location)+")")
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\n",
			p.Name, p.TotalPrice, strings.Join(p.Symptoms, ", "), strings.Join(names, "; "))
	}
}

func locationLabel(l client.Location) string {
	return l.Cabinet + "/" + l.Row + "/" + l.Box
}

// watch trata cada línea de in como una tecla en la caja de búsqueda. Se
// imprime solo el último resultado vigente; al cerrar stdin espera el
// resultado pendiente del último término (hasta debounce + timeout).
func watch(ctx context.Context, in io.Reader, out io.Writer, run runner, debounce, timeout time.Duration) error {
	live := client.NewLiveSearch(ctx, client.SearchFunc[output](run), debounce)
	defer live.Close()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		last     string
		deadline <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				lines = nil
				deadline = time.After(debounce + timeout)
				continue
			}
			last = line
			live.Type(line)

		case r := <-live.Results():
			if r.Err != nil && !errors.Is(r.Err, context.Canceled) {
				fmt.Fprintf(out, "> %s: error: %v\n", r.Term, r.Err)
			} else if r.Err == nil {
				fmt.Fprintf(out, "> %s\n", r.Term)
				r.Value.print(out)
			}
			if lines == nil && r.Term == last {
				return nil
			}

		case <-deadline:
			return nil
		}
	}
}
