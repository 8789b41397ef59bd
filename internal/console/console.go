// Package console is the interactive menu operators use at the front desk.
// It reads one answer per line and never ends the session on a domain
// error.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ehr/clinic/internal/domain/admission"
	"github.com/ehr/clinic/internal/domain/registry"
	"github.com/ehr/clinic/internal/domain/scheduling"
	"github.com/ehr/clinic/internal/platform/reporting"
	"github.com/ehr/clinic/internal/platform/tabular"
)

// DateTimeLayout is the pattern operators type date-times in.
const DateTimeLayout = "02/01/2006 15:04"

// Services are the engines the menu drives.
type Services struct {
	Registry   *registry.Service
	Scheduling *scheduling.Service
	Admission  *admission.Service
	Reports    *reporting.Aggregator
}

type Console struct {
	svc Services
	in  *bufio.Scanner
	out io.Writer
}

func New(svc Services, in io.Reader, out io.Writer) *Console {
	return &Console{svc: svc, in: bufio.NewScanner(in), out: out}
}

const mainMenu = `
===== CLÍNICA — MENU =====
1) Cadastrar paciente
2) Cadastrar médico
3) Agendar consulta
4) Concluir consulta
5) Cancelar consulta
6) Internar paciente
7) Dar alta
8) Cancelar internação
9) Relatórios
0) Sair
`

// Run shows the main menu until the operator picks 0, the input ends or
// ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	actions := map[string]func(context.Context) error{
		"1": c.registerPatient,
		"2": c.registerDoctor,
		"3": c.book,
		"4": c.complete,
		"5": c.cancelAppointment,
		"6": c.admit,
		"7": c.discharge,
		"8": c.cancelStay,
		"9": c.reports,
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.out, mainMenu)
		op, err := c.ask("Opção: ")
		if err != nil {
			return endOfInput(err)
		}
		if op == "0" {
			fmt.Fprintln(c.out, "Até logo!")
			return nil
		}
		action, ok := actions[op]
		if !ok {
			fmt.Fprintln(c.out, "Opção inválida.")
			continue
		}
		if err := action(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			fmt.Fprintf(c.out, "ERRO: %v\n", err)
		}
	}
}

func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// -- Prompts --

// ask returns the trimmed next line, or io.EOF once input is exhausted.
func (c *Console) ask(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

// askUntil re-prompts until parse accepts the answer.
func askUntil[T any](c *Console, prompt, hint string, parse func(string) (T, error)) (T, error) {
	for {
		raw, err := c.ask(prompt)
		if err != nil {
			var zero T
			return zero, err
		}
		v, err := parse(raw)
		if err == nil {
			return v, nil
		}
		fmt.Fprintln(c.out, hint)
	}
}

func (c *Console) askInt(prompt string) (int, error) {
	return askUntil(c, prompt, "Número inválido. Digite um inteiro não negativo.", func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err == nil && n < 0 {
			err = errors.New("negative")
		}
		return n, err
	})
}

func (c *Console) askFloat(prompt string) (float64, error) {
	return askUntil(c, prompt, "Valor inválido. Use números como 350 ou 350,50.", func(s string) (float64, error) {
		v, err := tabular.ParseFloat(s)
		if err == nil && v < 0 {
			err = errors.New("negative")
		}
		return v, err
	})
}

func (c *Console) askDateTime(prompt string) (time.Time, error) {
	return askUntil(c, prompt, "Formato inválido. Use dd/MM/yyyy HH:mm (ex.: 03/10/2025 14:30).", func(s string) (time.Time, error) {
		return time.ParseInLocation(DateTimeLayout, s, time.Local)
	})
}
