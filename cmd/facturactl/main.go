// facturactl: utilidades de línea de comandos para comprobantes electrónicos.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	domainhacienda "github.com/invosell/factura-api/internal/domain/hacienda"
	"github.com/invosell/factura-api/pkg/hacienda"
)

func main() {
	root := &cobra.Command{
		Use:   "facturactl",
		Short: "Herramientas para comprobantes electrónicos de Hacienda (Costa Rica)",
	}
	root.AddCommand(claveCmd(), estadoCmd(), consecutivoCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func claveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clave <clave de 50 dígitos>",
		Short: "Decodifica una clave numérica y muestra sus componentes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parts, err := hacienda.DecodeClave(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "país:           %s\n", parts.Country)
			fmt.Fprintf(out, "fecha emisión:  %02d/%02d/%d\n", parts.Day, parts.Month, parts.Year)
			fmt.Fprintf(out, "cédula emisor:  %s\n", parts.IssuerID)
			fmt.Fprintf(out, "tipo documento: %s (%s)\n", parts.DocType, docTypeName(parts.DocType))
			fmt.Fprintf(out, "consecutivo:    %s\n", parts.Consecutive)
			if parts.Sequence != "" {
				fmt.Fprintf(out, "numeración:     %s\n", parts.Sequence)
			}
			fmt.Fprintf(out, "situación:      %s\n", parts.Situation)
			fmt.Fprintf(out, "cód. seguridad: %s\n", parts.SecurityCode)
			return nil
		},
	}
}

func estadoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "estado <ind-estado>",
		Short: "Interpreta el ind-estado devuelto por la consulta de comprobantes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			interp := domainhacienda.Interpret(args[0])
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "estado: %s\n", interp.Status)
			if interp.Final {
				fmt.Fprintln(out, "final:  sí (nuevas consultas no cambian el resultado)")
			} else {
				fmt.Fprintln(out, "final:  no (volver a consultar más adelante)")
			}
			return nil
		},
	}
}

func consecutivoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consecutivo <tipo> <número>",
		Short: "Formatea el consecutivo de 20 dígitos (sucursal 001, terminal 00001)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("número inválido %q: %w", args[1], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hacienda.FormatConsecutive(args[0], n))
			return nil
		},
	}
}

func docTypeName(code string) string {
	switch code {
	case hacienda.DocTypeFactura:
		return "factura electrónica"
	case hacienda.DocTypeNotaDebito:
		return "nota de débito"
	case hacienda.DocTypeNotaCredito:
		return "nota de crédito"
	case hacienda.DocTypeTiquete:
		return "tiquete electrónico"
	default:
		return "desconocido"
	}
}
