package slots

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	systemcmd "github.com/fieldz/fieldz_backend/cmd/system"
	"github.com/fieldz/fieldz_backend/internal/app"
	"github.com/fieldz/fieldz_backend/internal/service/scheduling"
	"github.com/fieldz/fieldz_backend/pkg/database"
	"github.com/fieldz/fieldz_backend/pkg/logs"
	"github.com/fieldz/fieldz_backend/pkg/recurrence"
	redispkg "github.com/fieldz/fieldz_backend/pkg/redis"
)

type generateFlags struct {
	facility int64
	day      string
	start    string
	duration int
	price    float64
	from     string
	to       string
}

func (f generateFlags) request() (scheduling.RecurringRequest, error) {
	day, err := recurrence.ParseWeekday(f.day)
	if err != nil {
		return scheduling.RecurringRequest{}, err
	}
	start, err := recurrence.ParseClock(f.start)
	if err != nil {
		return scheduling.RecurringRequest{}, err
	}
	from, err := recurrence.ParseDate(f.from)
	if err != nil {
		return scheduling.RecurringRequest{}, fmt.Errorf("--from: %w", err)
	}
	to, err := recurrence.ParseDate(f.to)
	if err != nil {
		return scheduling.RecurringRequest{}, fmt.Errorf("--to: %w", err)
	}
	price, err := recurrence.PriceFromAmount(f.price)
	if err != nil {
		return scheduling.RecurringRequest{}, err
	}
	return scheduling.RecurringRequest{
		FacilityID:      f.facility,
		DayOfWeek:       day,
		StartTime:       start,
		DurationMinutes: f.duration,
		Price:           price,
		RangeStart:      from,
		RangeEnd:        to,
	}, nil
}

// NewGenerateCommand runs the recurring generator against the configured
// database, with the same locking and events as the HTTP endpoint.
func NewGenerateCommand() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate weekly recurring slots for a facility",
		Example: `  fieldz slots generate --facility 1 --day MONDAY --start 18:00 \
    --duration 90 --price 2500 --from 2024-01-01 --to 2024-06-30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request()
			if err != nil {
				return err
			}

			cfg, err := systemcmd.ReadConfig(cmd)
			if err != nil {
				return err
			}
			slog.SetDefault(logs.New(cfg))

			client, err := database.NewEntClient(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer client.Close()

			var rdb redis.UniversalClient
			if cfg.Scheduling.LockBackend != "local" {
				c, err := redispkg.NewRedisFromCentral(cmd.Context(), cfg.Redis, redispkg.ClientNameCLI)
				if err != nil {
					return err
				}
				defer c.Close()
				rdb = c
			}

			var nc *nats.Conn
			if cfg.Nats.URL != "" {
				nc, err = nats.Connect(cfg.Nats.URL, nats.Name("fieldz_cli"))
				if err != nil {
					return fmt.Errorf("nats connect: %w", err)
				}
				defer nc.Drain()
			}

			svc, err := app.ProvideSchedulingService(cfg, client,
				app.ProvideLocker(cfg, rdb),
				app.ProvidePublisher(cfg, nc),
				nil,
			)
			if err != nil {
				return err
			}

			report, err := svc.GenerateRecurring(context.Background(), req)
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().Int64Var(&f.facility, "facility", 0, "facility id")
	cmd.Flags().StringVar(&f.day, "day", "", "day of week, MONDAY..SUNDAY")
	cmd.Flags().StringVar(&f.start, "start", "", "start time, HH:mm")
	cmd.Flags().IntVar(&f.duration, "duration", 60, "slot length in minutes")
	cmd.Flags().Float64Var(&f.price, "price", 0, "slot price")
	cmd.Flags().StringVar(&f.from, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "last date (inclusive), YYYY-MM-DD")
	for _, name := range []string{"facility", "day", "start", "from", "to"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func printReport(cmd *cobra.Command, r *scheduling.GenerationReport) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "requested\t%d\n", r.Requested)
	fmt.Fprintf(w, "created\t%d\n", r.Created)
	fmt.Fprintf(w, "already existing\t%d\n", r.AlreadyExisting)
	for _, d := range r.ConflictDates {
		fmt.Fprintf(w, "conflict\t%s\n", d)
	}
	w.Flush()
}
