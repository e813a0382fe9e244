// Package macro provides the model of a US macroeconomic dashboard: time
// series of employment, inflation and interest rates, and a short economic
// calendar.
//
// The core functionalities include:
//   - Series: chronologically sorted observations, with their latest value,
//     the change from the previous observation and percent-change transforms
//     (month-over-month, year-over-year).
//   - Calendar: upcoming releases within the next two weeks, with the ones that
//     move rates (FOMC, payrolls, CPI) flagged as important.
//   - Catalogue: which series make the dashboard, how they are charted, loaded
//     from yaml or built in.
//   - Dashboard: the assembly of metric tiles, charts and calendar sidebar from
//     remote providers, where every failure degrades a single element into a
//     placeholder instead of failing the whole page.
//
// Providers live in their own packages (fred, bls, tradingeconomics), rendering
// in renderer and the web surface in server. This package serves as the
// foundation of the `mdash` command.
package macro
