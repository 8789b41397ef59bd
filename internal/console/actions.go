package console

import (
	"context"
	"fmt"

	"github.com/ehr/clinic/internal/domain/clinic"
)

// -- Registry --

func (c *Console) registerPatient(ctx context.Context) error {
	name, err := c.ask("Nome: ")
	if err != nil {
		return err
	}
	cpf, err := c.ask("CPF: ")
	if err != nil {
		return err
	}
	age, err := c.askInt("Idade: ")
	if err != nil {
		return err
	}
	plan, err := askUntil(c, "Plano (NENHUM/BASICO/PLUS/ESPECIAL): ", "Plano inválido.", clinic.ParsePlan)
	if err != nil {
		return err
	}

	inserted, err := c.svc.Registry.RegisterPatient(ctx, clinic.Patient{
		PersonInfo: clinic.PersonInfo{Name: name, NationalID: cpf, Age: age},
		Plan:       plan,
	})
	if err != nil {
		return err
	}
	if !inserted {
		fmt.Fprintln(c.out, "Já existe paciente com esse CPF. Nada foi alterado.")
		return nil
	}
	fmt.Fprintln(c.out, "Paciente cadastrado.")
	return nil
}

func (c *Console) registerDoctor(ctx context.Context) error {
	name, err := c.ask("Nome: ")
	if err != nil {
		return err
	}
	cpf, err := c.ask("CPF: ")
	if err != nil {
		return err
	}
	age, err := c.askInt("Idade: ")
	if err != nil {
		return err
	}
	crm, err := c.ask("CRM: ")
	if err != nil {
		return err
	}
	spec, err := askUntil(c, "Especialidade (CARDIOLOGIA/PEDIATRIA/GERAL): ", "Especialidade inválida.", clinic.ParseSpecialty)
	if err != nil {
		return err
	}

	price := clinic.DefaultBasePrice(spec)
	inserted, err := c.svc.Registry.RegisterDoctor(ctx, clinic.Doctor{
		PersonInfo: clinic.PersonInfo{Name: name, NationalID: cpf, Age: age},
		License:    crm,
		Specialty:  spec,
		BasePrice:  price,
	})
	if err != nil {
		return err
	}
	if !inserted {
		fmt.Fprintln(c.out, "Já existe médico com esse CRM.")
		return nil
	}
	fmt.Fprintf(c.out, "Médico cadastrado. Custo base: %.2f\n", price)
	return nil
}

// -- Scheduling --

func (c *Console) book(ctx context.Context) error {
	cpf, err := c.ask("CPF do paciente: ")
	if err != nil {
		return err
	}
	crm, err := c.ask("CRM do médico: ")
	if err != nil {
		return err
	}
	at, err := c.askDateTime("Data/hora (dd/MM/yyyy HH:mm): ")
	if err != nil {
		return err
	}
	location, err := c.ask("Local: ")
	if err != nil {
		return err
	}

	appt, err := c.svc.Scheduling.Book(ctx, cpf, crm, at, location)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Consulta agendada. ID=%s | Preço=%.2f\n", appt.ID, appt.FinalPrice)
	return nil
}

func (c *Console) complete(ctx context.Context) error {
	id, err := c.ask("ID da consulta: ")
	if err != nil {
		return err
	}
	diagnosis, err := c.ask("Diagnóstico: ")
	if err != nil {
		return err
	}
	prescription, err := c.ask("Prescrição: ")
	if err != nil {
		return err
	}
	if _, err := c.svc.Scheduling.Complete(ctx, id, diagnosis, prescription); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Consulta concluída.")
	return nil
}

func (c *Console) cancelAppointment(ctx context.Context) error {
	id, err := c.ask("ID da consulta: ")
	if err != nil {
		return err
	}
	if _, err := c.svc.Scheduling.Cancel(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Consulta cancelada.")
	return nil
}

// -- Admission --

func (c *Console) admit(ctx context.Context) error {
	cpf, err := c.ask("CPF do paciente: ")
	if err != nil {
		return err
	}
	crm, err := c.ask("CRM do médico responsável: ")
	if err != nil {
		return err
	}
	room, err := c.ask("Quarto: ")
	if err != nil {
		return err
	}
	entry, err := c.askDateTime("Entrada (dd/MM/yyyy HH:mm): ")
	if err != nil {
		return err
	}
	perDay, err := c.askFloat("Custo base por dia: ")
	if err != nil {
		return err
	}

	stay, err := c.svc.Admission.Admit(ctx, cpf, crm, room, entry, perDay)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Internado. ID=%s\n", stay.ID)
	return nil
}

func (c *Console) discharge(ctx context.Context) error {
	id, err := c.ask("ID da internação: ")
	if err != nil {
		return err
	}
	exit, err := c.askDateTime("Saída (dd/MM/yyyy HH:mm): ")
	if err != nil {
		return err
	}
	stay, err := c.svc.Admission.Discharge(ctx, id, exit)
	if err != nil {
		return err
	}
	cost, err := c.svc.Admission.Cost(ctx, stay.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Alta realizada. Custo total: %.2f\n", cost)
	return nil
}

func (c *Console) cancelStay(ctx context.Context) error {
	id, err := c.ask("ID da internação: ")
	if err != nil {
		return err
	}
	if err := c.svc.Admission.Cancel(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Internação cancelada.")
	return nil
}
