package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ehr/clinic/internal/domain/admission"
	"github.com/ehr/clinic/internal/domain/clinic"
	"github.com/ehr/clinic/internal/domain/scheduling"
	"github.com/ehr/clinic/internal/platform/reporting"
	"github.com/ehr/clinic/internal/platform/tabular"
)

const reportsMenu = `
--- Relatórios ---
1) Consultas futuras
2) Consultas passadas
3) Histórico de consultas do paciente
4) Histórico de internações do paciente
5) Médico com mais consultas concluídas
6) Especialidade com mais consultas concluídas
7) Internados agora
8) Estatísticas de planos
0) Voltar
`

func (c *Console) reports(ctx context.Context) error {
	actions := map[string]func(context.Context) error{
		"1": func(ctx context.Context) error { return c.listAppointments(ctx, true) },
		"2": func(ctx context.Context) error { return c.listAppointments(ctx, false) },
		"3": c.appointmentHistory,
		"4": c.stayHistory,
		"5": c.topDoctor,
		"6": c.topSpecialty,
		"7": c.admitted,
		"8": c.planStatistics,
	}
	for {
		fmt.Fprint(c.out, reportsMenu)
		op, err := c.ask("Opção: ")
		if err != nil {
			return err
		}
		if op == "0" {
			return nil
		}
		action, ok := actions[op]
		if !ok {
			fmt.Fprintln(c.out, "Opção inválida.")
			continue
		}
		if err := action(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return err
			}
			fmt.Fprintf(c.out, "ERRO: %v\n", err)
		}
	}
}

func parseOptionalSpecialty(s string) (clinic.Specialty, error) {
	if s == "" {
		return clinic.SpecialtyUnknown, nil
	}
	return clinic.ParseSpecialty(s)
}

func (c *Console) askFilter() (reporting.Filter, error) {
	var f reporting.Filter
	var err error
	if f.PatientID, err = c.ask("CPF do paciente (vazio para todos): "); err != nil {
		return f, err
	}
	if f.DoctorID, err = c.ask("CRM do médico (vazio para todos): "); err != nil {
		return f, err
	}
	f.Specialty, err = askUntil(c, "Especialidade (vazio para todas): ", "Especialidade inválida.", parseOptionalSpecialty)
	return f, err
}

func (c *Console) listAppointments(ctx context.Context, upcoming bool) error {
	f, err := c.askFilter()
	if err != nil {
		return err
	}
	var appts []scheduling.Appointment
	if upcoming {
		appts, err = c.svc.Reports.Upcoming(ctx, f)
	} else {
		appts, err = c.svc.Reports.Past(ctx, f)
	}
	if err != nil {
		return err
	}
	c.printAppointments(appts)
	return nil
}

func (c *Console) appointmentHistory(ctx context.Context) error {
	cpf, err := c.ask("CPF do paciente: ")
	if err != nil {
		return err
	}
	appts, err := c.svc.Reports.PatientAppointmentHistory(ctx, cpf)
	if err != nil {
		return err
	}
	c.printAppointments(appts)
	return nil
}

func (c *Console) stayHistory(ctx context.Context) error {
	cpf, err := c.ask("CPF do paciente: ")
	if err != nil {
		return err
	}
	stays, err := c.svc.Reports.PatientStayHistory(ctx, cpf)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Internações: %d\n", len(stays))
	for _, st := range stays {
		exit := "em aberto"
		if st.Exit != nil {
			exit = st.Exit.Format(DateTimeLayout)
		}
		fmt.Fprintf(c.out, "- %s | quarto %s | entrada %s | saída %s | %s/dia | %d dia(s)\n",
			st.ID, st.Room, st.Entry.Format(DateTimeLayout), exit,
			tabular.FormatFloat(st.BaseCostPerDay), admission.Days(st, c.svc.Admission.Now()))
	}
	return nil
}

func (c *Console) topDoctor(ctx context.Context) error {
	top, ok, err := c.svc.Reports.TopDoctorByCompleted(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.out, "Nenhuma consulta concluída.")
		return nil
	}
	fmt.Fprintf(c.out, "%s (CRM %s): %d consulta(s) concluída(s)\n", top.Name, top.License, top.Completed)
	return nil
}

func (c *Console) topSpecialty(ctx context.Context) error {
	top, ok, err := c.svc.Reports.TopSpecialtyByCompleted(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.out, "Nenhuma consulta concluída.")
		return nil
	}
	fmt.Fprintf(c.out, "%s: %d consulta(s) concluída(s)\n", top.Specialty.Label(), top.Completed)
	return nil
}

func (c *Console) admitted(ctx context.Context) error {
	list, err := c.svc.Reports.CurrentlyAdmitted(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Internados agora: %d\n", len(list))
	for _, a := range list {
		fmt.Fprintf(c.out, "- %s (CPF %s), quarto %s, %dh\n", a.Name, a.PatientID, a.Room, a.Hours)
	}
	return nil
}

func (c *Console) planStatistics(ctx context.Context) error {
	stats, err := c.svc.Reports.PlanStatistics(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Sem plano: %d\n", stats.None)
	fmt.Fprintf(c.out, "%s: %d\n", clinic.PlanBasic, stats.Basic)
	fmt.Fprintf(c.out, "%s: %d\n", clinic.PlanPlus, stats.Plus)
	fmt.Fprintf(c.out, "%s: %d\n", clinic.PlanSpecial, stats.Special)
	fmt.Fprintf(c.out, "Economia total: %.2f\n", stats.Savings)
	return nil
}

func (c *Console) printAppointments(appts []scheduling.Appointment) {
	fmt.Fprintf(c.out, "Consultas: %d\n", len(appts))
	for _, a := range appts {
		line := fmt.Sprintf("- %s | %s | paciente %s | médico %s | %s | %s | %.2f",
			a.ID, a.DateTime.Format(DateTimeLayout), a.PatientID, a.DoctorID, a.Location, a.Status.Label(), a.FinalPrice)
		if a.Diagnosis != "" {
			line += " | " + strings.ReplaceAll(a.Diagnosis, "\n", " ")
		}
		fmt.Fprintln(c.out, line)
	}
}
