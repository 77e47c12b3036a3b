package bol

// sampleBOL mirrors the text layer of a two-container MSC sea waybill.
const sampleBOL = `MEDITERRANEAN SHIPPING COMPANY S.A.
BILL OF LADING No. MEDUP1966175     Booking Ref. 065-2024
SHIPPER:
INTERCROMA SA
Rua Conde D'eu, 800- Bairro Alpino
89286-691 Sao Bento do Sul - SC - Brazil
CONSIGNEE:
MUSCAT WOODEN PALLETS L.L.C.
P.O. BOX - 284, AUQADEN 217, SALALAH
SULTANATE OF OMAN
NOTIFY PARTIES: SAME AS CONSIGNEE
VESSEL AND VOYAGE NO: MSC ALINA FA419A
PORT OF LOADING: ITAPOA, BRAZIL
PORT OF DISCHARGE: SALALAH, OMAN

2 x 40' HIGH CUBE
BEAU5862453 SEAL: FJ21074021 40' HIGH CUBE
44 PALLET of IN 2X40'HC CONTAINERS WITH 88 PALLETS
BMOU5932452 SEAL: FJ21154465 40' HIGH CUBE
44 PALLET of SAWN TIMBER

Total Items: 88
Total Gross Weight: 50,000.000 Kgs
FREIGHT AND CHARGES: PREPAID
PLACE AND DATE OF ISSUE: ITAPOA 12-Mar-2024
`
