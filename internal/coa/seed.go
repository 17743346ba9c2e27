package coa

import "context"

// DefaultChart returns the minimal Bolivian chart the SaaS provisions for a
// new company. Codes follow the national prefix convention: 1 activo,
// 2 pasivo, 3 patrimonio, 4 ingresos, 5 gastos.
func DefaultChart() []Account {
	return []Account{
		{Code: "1", Name: "Activo", Type: TypeAsset},
		{Code: "11", Name: "Activo Corriente", Type: TypeAsset, ParentCode: "1"},
		{Code: "111", Name: "Disponible", Type: TypeAsset, ParentCode: "11"},
		{Code: "1111", Name: "Caja y Bancos", Type: TypeAsset, ParentCode: "111"},
		{Code: "112", Name: "Exigible", Type: TypeAsset, ParentCode: "11"},
		{Code: "1121", Name: "Cuentas por Cobrar", Type: TypeAsset, ParentCode: "112"},
		{Code: "1122", Name: "Crédito Fiscal IVA", Type: TypeAsset, ParentCode: "112"},
		{Code: "12", Name: "Activo No Corriente", Type: TypeAsset, ParentCode: "1"},
		{Code: "121", Name: "Activo Fijo", Type: TypeAsset, ParentCode: "12"},
		{Code: "122", Name: "Depreciación Acumulada", Type: TypeAsset, ParentCode: "12"},

		{Code: "2", Name: "Pasivo", Type: TypeLiability},
		{Code: "21", Name: "Pasivo Corriente", Type: TypeLiability, ParentCode: "2"},
		{Code: "211", Name: "Cuentas por Pagar", Type: TypeLiability, ParentCode: "21"},
		{Code: "212", Name: "Débito Fiscal IVA", Type: TypeLiability, ParentCode: "21"},
		{Code: "213", Name: "Sueldos por Pagar", Type: TypeLiability, ParentCode: "21"},
		{Code: "214", Name: "Retenciones por Pagar", Type: TypeLiability, ParentCode: "21"},

		{Code: "3", Name: "Patrimonio", Type: TypeEquity},
		{Code: "31", Name: "Capital Social", Type: TypeEquity, ParentCode: "3"},
		{Code: "32", Name: "Resultados Acumulados", Type: TypeEquity, ParentCode: "3"},

		{Code: "4", Name: "Ingresos", Type: TypeIncome},
		{Code: "41", Name: "Ventas de Productos", Type: TypeIncome, ParentCode: "4"},
		{Code: "42", Name: "Ventas de Servicios", Type: TypeIncome, ParentCode: "4"},
		{Code: "43", Name: "Otros Ingresos", Type: TypeIncome, ParentCode: "4"},

		{Code: "5", Name: "Gastos", Type: TypeExpense},
		{Code: "51", Name: "Costo de Ventas", Type: TypeExpense, ParentCode: "5"},
		{Code: "52", Name: "Gastos Operativos", Type: TypeExpense, ParentCode: "5"},
		{Code: "521", Name: "Gastos de Personal", Type: TypeExpense, ParentCode: "52"},
		{Code: "522", Name: "Cargas Patronales", Type: TypeExpense, ParentCode: "52"},
		{Code: "523", Name: "Depreciaciones", Type: TypeExpense, ParentCode: "52"},
		{Code: "53", Name: "Impuesto a las Transacciones", Type: TypeExpense, ParentCode: "5"},
		{Code: "54", Name: "Otros Gastos", Type: TypeExpense, ParentCode: "5"},
		{Code: "55", Name: "Impuesto sobre las Utilidades", Type: TypeExpense, ParentCode: "5"},
	}
}

// SeedDefaultChart loads DefaultChart into repo. SaveAccount upserts, so
// reseeding an already-provisioned company is harmless.
func SeedDefaultChart(ctx context.Context, repo Repository) error {
	for _, account := range DefaultChart() {
		account.Level = len(account.Code) // prefix scheme: one digit per level
		if err := repo.SaveAccount(ctx, account); err != nil {
			return err
		}
	}
	return nil
}
