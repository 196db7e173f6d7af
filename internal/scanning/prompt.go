package scanning

// receiptScanPrompt is the shared prompt used by all LLM providers for scanning receipts
const receiptScanPrompt = `You are reading a grocery receipt (usually French). Read every printed line and return the purchase as JSON.

Header fields:
- "store_name": the merchant at the top of the receipt (e.g. "Carrefour", "Monoprix", "Aziza").
- "date": the purchase date as YYYY-MM-DD. Receipts usually print DD/MM/YYYY.
- "currency": the ISO currency code if printed or obvious (e.g. "TND", "EUR").
- "total", "subtotal", "tax_total": amounts as numbers.
- "confidence": your confidence in the extraction, between 0 and 1.

Line items, one object per purchased article in "lines":
- "raw_label": the article text exactly as printed, including any pack notation such as "6x0.500" or "4 X 1,250=5,000".
- "normalized_label": the product name without sizes, prices or promotions, if you can tell.
- "quantity", "unit" ("kg", "g", "l", "ml", "pcs"), "unit_price", "line_total", "vat_rate": numbers when printed.
- "barcode": the EAN if printed.
- "category": leave empty unless the receipt prints one.

Return ONLY valid JSON in this exact shape:
{
  "store_name": "",
  "date": "YYYY-MM-DD",
  "currency": "",
  "total": 0.000,
  "subtotal": null,
  "tax_total": null,
  "confidence": 0.0,
  "lines": [
    {"raw_label": "", "normalized_label": "", "quantity": null, "unit": null, "unit_price": null, "line_total": null, "vat_rate": null, "barcode": null, "category": null}
  ]
}

Important:
- Numbers must be JSON numbers, not strings; use a dot as the decimal separator
- Do not guess a quantity that is not printed; use null
- Skip payment, change, loyalty and total lines
- Do not include any text before or after the JSON
- Do not use markdown code blocks`
