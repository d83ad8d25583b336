package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/mateoquiros/vendaria-backend/internal/balances"
	"github.com/mateoquiros/vendaria-backend/internal/orders"
	"github.com/mateoquiros/vendaria-backend/internal/settlement"
	"github.com/mateoquiros/vendaria-backend/internal/shops"
	"github.com/mateoquiros/vendaria-backend/pkg/config"
	"github.com/mateoquiros/vendaria-backend/pkg/db"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
	"github.com/mateoquiros/vendaria-backend/pkg/logger"
	"github.com/mateoquiros/vendaria-backend/pkg/outbox"
	"github.com/mateoquiros/vendaria-backend/pkg/types"
)

// Exit codes so operators can branch on failures in scripts.
const (
	exitOK         = 0
	exitError      = 1
	exitValidation = 2
	exitNotFound   = 3
	exitTransition = 4
	exitForbidden  = 5
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "ordersctl"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "", "command: get|approve-payment|status|cancel|refund|transitions")
	orderFlag := flag.String("order", "", "order id (uuid)")
	statusFlag := flag.String("status", "", "target order status (for -cmd=status)")
	tracking := flag.String("tracking", "", "tracking number (optional, for -cmd=status)")
	reason := flag.String("reason", "", "reason (for cancel/refund)")
	actorFlag := flag.String("actor", "", "acting admin user id (optional)")
	flag.Parse()

	if *cmd == "" {
		fmt.Fprintln(os.Stderr, "missing -cmd")
		return exitValidation
	}

	orderID, err := uuid.Parse(*orderFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -order value %q\n", *orderFlag)
		return exitValidation
	}

	actor := types.Actor{UserID: uuid.Nil, Role: enums.ActorRoleAdmin}
	if *actorFlag != "" {
		actorID, err := uuid.Parse(*actorFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -actor value %q\n", *actorFlag)
			return exitValidation
		}
		actor.UserID = actorID
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return exitError
	}

	logg = logger.New(logger.Options{
		ServiceName: "ordersctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	database, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect database: %v\n", err)
		return exitError
	}
	defer database.Close()

	gormDB := database.DB()
	balanceSvc, err := balances.NewService(balances.NewRepository(gormDB))
	if err != nil {
		fmt.Fprintf(os.Stderr, "build balance service: %v\n", err)
		return exitError
	}
	shopSvc, err := shops.NewService(shops.NewRepository(gormDB))
	if err != nil {
		fmt.Fprintf(os.Stderr, "build shop service: %v\n", err)
		return exitError
	}
	settlementSvc, err := settlement.NewService(
		database,
		orders.NewRepository(gormDB),
		settlement.NewTransitionRepository(gormDB),
		balanceSvc,
		shopSvc,
		outbox.NewService(outbox.NewRepository(gormDB), logg),
		logg,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build settlement service: %v\n", err)
		return exitError
	}
	ordersRepo := orders.NewRepository(gormDB)

	switch *cmd {
	case "get":
		order, err := ordersRepo.FindByID(ctx, orderID)
		if err != nil {
			return fail(err)
		}
		return printJSON(order)

	case "approve-payment":
		order, err := settlementSvc.ApprovePayment(ctx, orderID, actor)
		if err != nil {
			return fail(err)
		}
		return printJSON(order)

	case "status":
		newStatus, err := enums.ParseOrderStatus(*statusFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -status value %q\n", *statusFlag)
			return exitValidation
		}
		input := settlement.UpdateStatusInput{
			OrderID:   orderID,
			Actor:     actor,
			NewStatus: newStatus,
		}
		if *tracking != "" {
			input.TrackingNumber = tracking
		}
		order, err := settlementSvc.UpdateStatus(ctx, input)
		if err != nil {
			return fail(err)
		}
		return printJSON(order)

	case "cancel":
		if *reason == "" {
			fmt.Fprintln(os.Stderr, "missing -reason for cancel")
			return exitValidation
		}
		order, err := settlementSvc.Cancel(ctx, orderID, actor, *reason)
		if err != nil {
			return fail(err)
		}
		return printJSON(order)

	case "refund":
		if *reason == "" {
			fmt.Fprintln(os.Stderr, "missing -reason for refund")
			return exitValidation
		}
		order, err := settlementSvc.Refund(ctx, orderID, actor, *reason)
		if err != nil {
			return fail(err)
		}
		return printJSON(order)

	case "transitions":
		rows, err := settlementSvc.Transitions(ctx, orderID)
		if err != nil {
			return fail(err)
		}
		return printJSON(rows)

	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		return exitValidation
	}
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, err.Error())
	return exitCodeFor(err)
}

// exitCodeFor maps the error taxonomy onto script-friendly exit codes.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	coded := pkgerrors.As(err)
	if coded == nil {
		return exitError
	}
	switch coded.Code() {
	case pkgerrors.CodeValidation:
		return exitValidation
	case pkgerrors.CodeNotFound:
		return exitNotFound
	case pkgerrors.CodeStateConflict, pkgerrors.CodeConflict:
		return exitTransition
	case pkgerrors.CodeForbidden, pkgerrors.CodeUnauthorized:
		return exitForbidden
	default:
		return exitError
	}
}

func printJSON(v any) int {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		return exitError
	}
	fmt.Println(string(out))
	return exitOK
}
